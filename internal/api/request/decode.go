package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mcoot/eloladder/internal/api/apierr"
)

// MaxBodyBytes caps the size of a request body
const MaxBodyBytes = 64 << 10

// Decode reads a single JSON object from the request body into v.
// Any failure is returned as an invalid request error.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return apierr.NewInvalidRequestError("request body is required")
		case errors.As(err, &tooLarge):
			return apierr.NewInvalidRequestError(fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
		default:
			return apierr.NewInvalidRequestError("invalid request body: " + err.Error())
		}
	}

	if dec.More() {
		return apierr.NewInvalidRequestError("request body must contain a single JSON object")
	}
	return nil
}
