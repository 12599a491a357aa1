package pagination

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize is used when the client omits pageSize.
	DefaultPageSize = 50
	// DefaultMaxPageSize caps pageSize to keep catalog queries bounded.
	DefaultMaxPageSize = 100
)

var (
	ErrInvalidPageSize  = errors.New("pagination: invalid pageSize")
	ErrInvalidPageToken = errors.New("pagination: invalid pageToken")
)

// Params carries the paging values accepted by list endpoints.
type Params struct {
	PageSize  int
	PageToken string
}

// FromRequest parses pageSize and pageToken from the request query string.
func FromRequest(r *http.Request) (Params, error) {
	if r == nil {
		return Params{}, errors.New("pagination: nil request")
	}
	return Parse(r.URL.Query())
}

// Parse validates the paging query values. An oversized pageSize is clamped,
// a non-positive or non-numeric one is rejected, and pageToken must decode.
func Parse(values url.Values) (Params, error) {
	params := Params{PageSize: DefaultPageSize}
	if values == nil {
		return params, nil
	}

	if raw := strings.TrimSpace(values.Get("pageSize")); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, fmt.Errorf("%w: must be an integer", ErrInvalidPageSize)
		}
		if size <= 0 {
			return Params{}, fmt.Errorf("%w: must be greater than zero", ErrInvalidPageSize)
		}
		if size > DefaultMaxPageSize {
			size = DefaultMaxPageSize
		}
		params.PageSize = size
	}

	if token := strings.TrimSpace(values.Get("pageToken")); token != "" {
		if _, err := DecodeToken(token); err != nil {
			return Params{}, err
		}
		params.PageToken = token
	}

	return params, nil
}
