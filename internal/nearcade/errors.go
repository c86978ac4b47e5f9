package nearcade

import (
	"errors"
	"fmt"
	"strings"
)

// APIError carries a non-2xx response. Its message is the response body, which
// nearcade writes for humans, so callers surface Error() verbatim.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return body
}

var ErrNotConfigured = errors.New("nearcade client not configured")

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
