package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"quix/internal/domain"
)

// MaxBodyBytes bounds a request body. A batch larger than this has to be
// split by the client.
const MaxBodyBytes = 10 << 20

// ParseJSON decodes exactly one JSON document from the request body into
// dest. Unknown fields and trailing data are validation errors; an oversized
// body keeps its *http.MaxBytesError so StatusOf reports 413.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("request body over %d bytes: %w", tooLarge.Limit, err)
		}
		return domain.NewValidationError("invalid JSON: %v", err)
	}
	if decoder.More() {
		return domain.NewValidationError("invalid JSON: unexpected data after the request body")
	}
	return nil
}
