package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"equiprent-backend/internal/api/http/middleware"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"

	"github.com/gorilla/mux"
)

const maxJSONBody = 1 << 20

// decodeJSON reads the request body into v. limit caps the body size; zero
// means the default of 1 MiB.
func decodeJSON(r *http.Request, v any, limit int64) error {
	if limit <= 0 {
		limit = maxJSONBody
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, limit+1))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.BadRequest("request body is required")
		}
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntaxErr):
			return domain.BadRequest("malformed JSON at offset %d", syntaxErr.Offset)
		case errors.As(err, &typeErr):
			return domain.BadRequest("invalid value for field %q", typeErr.Field)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return domain.BadRequest("request body is too large or truncated")
		}
		return domain.BadRequest("invalid request body: %s", err.Error())
	}
	return nil
}

func pathID(r *http.Request, name string) (int32, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		return 0, domain.BadRequest("invalid %s", name)
	}
	return int32(id), nil
}

func queryInt32(r *http.Request, name string) (int32, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, domain.BadRequest("invalid %s", name)
	}
	return int32(n), nil
}

func queryBool(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

// pageParams reads ?page=&limit= and applies the shared defaults.
func pageParams(r *http.Request) (int32, int32, error) {
	page, err := queryInt32(r, "page")
	if err != nil {
		return 0, 0, err
	}
	limit, err := queryInt32(r, "limit")
	if err != nil {
		return 0, 0, err
	}
	page, limit = service.NormalizePage(page, limit)
	return page, limit, nil
}

func currentUser(r *http.Request) *domain.User {
	return middleware.UserFromContext(r.Context())
}

// reasonBody is the payload of reject/cancel style actions.
type reasonBody struct {
	Reason string `json:"reason"`
}

// optionalReason decodes an optional {"reason": ...} body.
func optionalReason(r *http.Request) (string, error) {
	if r.ContentLength == 0 {
		return "", nil
	}
	var body reasonBody
	if err := decodeJSON(r, &body, 0); err != nil {
		return "", err
	}
	return body.Reason, nil
}
