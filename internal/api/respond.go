package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/soaringjerry/hrpulse/internal/middleware"
	"github.com/soaringjerry/hrpulse/internal/services"
	"github.com/soaringjerry/hrpulse/internal/utils"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
	Error   string            `json:"error,omitempty"`
}

var errEmptyBody = errors.New("empty body")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (rt *Router) writeMessage(w http.ResponseWriter, r *http.Request, status int, msg string) {
	locale := middleware.LocaleFromContext(r.Context())
	writeJSON(w, status, errorBody{Message: utils.T(locale, msg)})
}

// writeError maps a service error onto its status code. Errors that are not
// ServiceErrors are store failures: logged, answered with a generic 500.
func (rt *Router) writeError(w http.ResponseWriter, r *http.Request, err error) {
	locale := middleware.LocaleFromContext(r.Context())
	se, ok := services.AsServiceError(err)
	if !ok {
		rt.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Message: utils.T(locale, "internal server error")})
		return
	}
	body := errorBody{Message: utils.T(locale, se.Message)}
	status := http.StatusInternalServerError
	switch se.Code {
	case services.ErrorInvalid:
		status = http.StatusBadRequest
		body.Errors = se.Fields
	case services.ErrorUnauthorized:
		status = http.StatusUnauthorized
	case services.ErrorForbidden:
		status = http.StatusForbidden
	case services.ErrorNotFound:
		status = http.StatusNotFound
	case services.ErrorConflict:
		status = http.StatusConflict
	case services.ErrorUpstream:
		if se.Cause != nil {
			body.Error = se.Cause.Error()
		}
	}
	writeJSON(w, status, body)
}

// decodeJSON reads a single JSON value from the request body. Any failure is
// reported as an invalid request body.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			err = errEmptyBody
		}
		return &services.ServiceError{
			Code:    services.ErrorInvalid,
			Message: "invalid request body",
			Cause:   err,
		}
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be omitted.
func decodeOptionalJSON(r *http.Request, v any) error {
	err := decodeJSON(r, v)
	if se, ok := services.AsServiceError(err); ok && errors.Is(se.Cause, errEmptyBody) {
		return nil
	}
	return err
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, services.NewInvalidError("invalid id")
	}
	return id, nil
}
