package ecampus

import (
	"bunker-backend/pkg/htmlutil"
	"errors"
	"fmt"
)

var (
	// ErrNetwork covers timeouts, connection failures and unexpected status codes.
	ErrNetwork = errors.New("network error")
	// ErrMalformedPage means an expected table or field is absent from a page.
	ErrMalformedPage = errors.New("malformed page")
	// ErrMalformedLoginPage means the login form is missing one of its hidden state fields.
	ErrMalformedLoginPage = fmt.Errorf("login page: %w", ErrMalformedPage)
	// ErrParse means a cell value could not be converted to the expected type.
	ErrParse = errors.New("parse error")
	// ErrAuthentication means the credentials were rejected or the handshake failed.
	ErrAuthentication = errors.New("authentication failed")
)

// malformed wraps an htmlutil lookup failure so it matches both ErrMalformedPage
// and htmlutil.ErrNotFound.
func malformed(err error) error {
	if errors.Is(err, htmlutil.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrMalformedPage, err)
	}
	return err
}
