package urlcheck

import (
	"errors"
	"testing"
)

func TestValidate_Schemes(t *testing.T) {
	cases := []struct {
		url     string
		wantErr error
	}{
		{"https://example.com/docs", nil},
		{"http://example.com", nil},
		{"ftp://example.com", ErrUnsafeScheme},
		{"file:///etc/passwd", ErrUnsafeScheme},
		{"javascript:alert(1)", ErrUnsafeScheme},
	}
	for _, tc := range cases {
		err := Validate(tc.url)
		if tc.wantErr == nil && err != nil {
			t.Errorf("Validate(%q): unexpected error %v", tc.url, err)
		}
		if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
			t.Errorf("Validate(%q): got %v, want %v", tc.url, err, tc.wantErr)
		}
	}
}

func TestValidate_PrivateIPs(t *testing.T) {
	blocked := []string{
		"http://127.0.0.1/",
		"http://10.1.2.3/",
		"http://172.16.0.1/",
		"http://192.168.1.1/admin",
		"http://169.254.169.254/latest/meta-data/",
		"http://[::1]/",
	}
	for _, u := range blocked {
		if err := Validate(u); !errors.Is(err, ErrSSRF) {
			t.Errorf("Validate(%q): got %v, want ErrSSRF", u, err)
		}
	}
}

func TestValidate_NoHost(t *testing.T) {
	if err := Validate("https:///path-only"); err == nil {
		t.Error("expected error for URL without host")
	}
}

func TestValidateLoose_AllowsPrivate(t *testing.T) {
	if err := ValidateLoose("http://127.0.0.1:8080/"); err != nil {
		t.Errorf("ValidateLoose localhost: %v", err)
	}
	if err := ValidateLoose("gopher://example.com"); !errors.Is(err, ErrUnsafeScheme) {
		t.Errorf("ValidateLoose scheme: got %v, want ErrUnsafeScheme", err)
	}
}
