package basecamp

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrMalformedResponse indicates a response body that is not the expected JSON.
var ErrMalformedResponse = errors.New("malformed response")

// ErrResponseTooLarge indicates a response body over the client's size limit.
var ErrResponseTooLarge = errors.New("response too large")

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("API error (status %d): %s: %s", e.StatusCode, e.URL, e.Body)
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 or 410 response.
func IsNotFound(err error) bool {
	code := statusOf(err)
	return code == http.StatusNotFound || code == http.StatusGone
}

// IsUnauthorized reports whether err is a 401 or 403 response.
func IsUnauthorized(err error) bool {
	code := statusOf(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// IsUnavailableThread reports whether a comment fetch failed because the thread
// was moved, removed or returned unparsable content. Such threads are skipped.
func IsUnavailableThread(err error) bool {
	return errors.Is(err, ErrMalformedResponse) || IsNotFound(err)
}
