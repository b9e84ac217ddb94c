package sitechat

import "errors"

// ErrInvalidInput is returned when a chat request fails validation.
var ErrInvalidInput = errors.New("sitechat: invalid input")

// ErrNoBrowser is returned when an operation needs the headless browser
// but the service was started without one.
var ErrNoBrowser = errors.New("sitechat: no browser configured")
