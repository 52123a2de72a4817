package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"conservadora/internal/report"
)

const maxBodyBytes = 1 << 20

// decodeJSON reads a single JSON value from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("corpo da requisição vazio")
		}
		return fmt.Errorf("JSON inválido: %w", err)
	}
	if dec.More() {
		return errors.New("JSON inválido: dados extras após o objeto")
	}
	return nil
}

// parseFilter reads ?month=YYYY-MM&staff=<id>. Both are optional.
func parseFilter(r *http.Request) (report.Filter, error) {
	q := r.URL.Query()
	return report.ParseFilter(q.Get("month"), q.Get("staff"))
}
