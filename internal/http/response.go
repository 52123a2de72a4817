package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"conservadora/internal/core"
	"conservadora/internal/entity"
	"conservadora/internal/table"
)

// JSONResponse builds a JSON reply. Error replies carry {"error": message}.
type JSONResponse struct {
	status  int
	headers map[string]string
	body    any
}

// NewJSONResponse creates a builder with status 200.
func NewJSONResponse() *JSONResponse {
	return &JSONResponse{status: http.StatusOK, headers: map[string]string{}}
}

func (b *JSONResponse) Status(code int) *JSONResponse {
	b.status = code
	return b
}

func (b *JSONResponse) Header(name, value string) *JSONResponse {
	b.headers[name] = value
	return b
}

func (b *JSONResponse) Data(v any) *JSONResponse {
	b.body = v
	return b
}

// Write sends the response. A nil body with status 204 writes nothing.
func (b *JSONResponse) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.status == http.StatusNoContent {
		w.WriteHeader(b.status)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.status)
	_ = json.NewEncoder(w).Encode(b.body)
}

type errorBody struct {
	Error string `json:"error"`
}

func errorReply(status int, message string) *JSONResponse {
	return NewJSONResponse().Status(status).Data(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponse {
	return errorReply(http.StatusBadRequest, message)
}

func ValidationError(err error) *JSONResponse {
	return errorReply(http.StatusUnprocessableEntity, err.Error())
}

func NotFoundError(message string) *JSONResponse {
	return errorReply(http.StatusNotFound, message)
}

func MethodNotAllowedError(message string) *JSONResponse {
	return errorReply(http.StatusMethodNotAllowed, message)
}

func BadGatewayError(message string) *JSONResponse {
	return errorReply(http.StatusBadGateway, message)
}

func UnavailableError(message string) *JSONResponse {
	return errorReply(http.StatusServiceUnavailable, message)
}

func InternalError(message string) *JSONResponse {
	return errorReply(http.StatusInternalServerError, message)
}

var validationErrors = []error{
	core.ErrMissingName,
	core.ErrMissingTaxID,
	core.ErrMissingAddress,
	core.ErrMissingDate,
	core.ErrNegativeHours,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// errorResponse maps a store or backend error to a reply.
func errorResponse(err error) *JSONResponse {
	var terr *table.Error
	switch {
	case isValidationError(err):
		return ValidationError(err)
	case errors.Is(err, entity.ErrReadOnly):
		return MethodNotAllowedError(err.Error())
	case errors.Is(err, table.ErrNotFound):
		return NotFoundError("registro não encontrado")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return UnavailableError("requisição cancelada")
	case errors.As(err, &terr):
		return BadGatewayError(table.Message(err))
	case errors.Is(err, entity.ErrIncompleteRecord):
		return BadGatewayError(err.Error())
	default:
		return InternalError(err.Error())
	}
}
