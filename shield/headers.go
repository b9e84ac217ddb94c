package shield

import "net/http"

// HeaderConfig defines the security headers applied to every response.
type HeaderConfig struct {
	XFrameOptions       string
	XContentTypeOptions string
	ReferrerPolicy      string
	CORSOrigin          string
}

// DefaultHeaders returns the standard configuration for the chat API. The
// widget is embedded on the customer's own pages, so cross-origin requests
// are allowed while framing of the API itself is denied.
func DefaultHeaders() HeaderConfig {
	return HeaderConfig{
		XFrameOptions:       "DENY",
		XContentTypeOptions: "nosniff",
		ReferrerPolicy:      "strict-origin-when-cross-origin",
		CORSOrigin:          "*",
	}
}

// SecurityHeaders returns middleware that sets the configured headers on
// every response and answers CORS preflight requests.
func SecurityHeaders(cfg HeaderConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.XContentTypeOptions != "" {
				w.Header().Set("X-Content-Type-Options", cfg.XContentTypeOptions)
			}
			if cfg.XFrameOptions != "" {
				w.Header().Set("X-Frame-Options", cfg.XFrameOptions)
			}
			if cfg.ReferrerPolicy != "" {
				w.Header().Set("Referrer-Policy", cfg.ReferrerPolicy)
			}
			if cfg.CORSOrigin != "" {
				w.Header().Set("Access-Control-Allow-Origin", cfg.CORSOrigin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				if r.Method == http.MethodOptions {
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
