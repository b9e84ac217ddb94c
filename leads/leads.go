// Package leads captures contact requests submitted through the chat
// widget. Write-only from the service's point of view: leads are inspected
// directly in the database or exported by operators.
package leads

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// ErrInvalidInput marks a lead that failed validation. Wrapped errors name
// the offending field so the API can return a useful 400.
var ErrInvalidInput = errors.New("leads: invalid input")

// Lead is a contact request. Name and Email are required; everything else
// is optional and defaults to empty or false.
type Lead struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone,omitempty"`
	Company       string `json:"company,omitempty"`
	InquiryType   string `json:"inquiry_type,omitempty"`
	Message       string `json:"message,omitempty"`
	ContactMethod string `json:"contact_method,omitempty"`
	BestTime      string `json:"best_time,omitempty"`
	Agree         bool   `json:"agree"`
	Newsletter    bool   `json:"newsletter"`
	CreatedAt     int64  `json:"created_at,omitempty"`
}

const maxFieldLen = 2000

// Validate normalises the lead in place and checks the required fields.
// The returned error wraps ErrInvalidInput and names the field.
func (l *Lead) Validate() error {
	l.Name = strings.TrimSpace(l.Name)
	l.Email = strings.TrimSpace(l.Email)
	l.Phone = strings.TrimSpace(l.Phone)
	l.Company = strings.TrimSpace(l.Company)
	l.InquiryType = strings.TrimSpace(l.InquiryType)
	l.Message = strings.TrimSpace(l.Message)
	l.ContactMethod = strings.TrimSpace(l.ContactMethod)
	l.BestTime = strings.TrimSpace(l.BestTime)

	if l.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if l.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(l.Email); err != nil {
		return fmt.Errorf("%w: email is not a valid address", ErrInvalidInput)
	}
	if len(l.Message) > maxFieldLen {
		l.Message = l.Message[:maxFieldLen]
	}
	return nil
}
