package httpx

import (
	"errors"
	"io"
	"net/http"
)

// DecodeJSON reads the request body into dst. An empty body is reported as
// io.EOF so callers can decide whether it is acceptable.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return io.EOF
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
