package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/medchat/internal/common"
	"github.com/dmitrijs2005/medchat/internal/server/chat"
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// statusFor maps a service error to the HTTP status and detail shown to the client.
func statusFor(err error) (int, string) {
	var perr *chat.ProcessingError

	switch {
	case errors.As(err, &perr):
		return http.StatusInternalServerError, "Error processing message: " + perr.Err.Error()
	case errors.Is(err, common.ErrServiceUnavailable):
		return http.StatusInternalServerError, common.ErrServiceUnavailable.Error()
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusBadRequest, "Username already registered"
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "Incorrect username or password"
	case errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized, "Token has expired"
	case errors.Is(err, common.ErrInvalidToken):
		return http.StatusUnauthorized, "Could not validate credentials"
	case errors.Is(err, common.ErrSessionNotFound):
		return http.StatusNotFound, "Session not found"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", common.BearerScheme)
	}
	writeDetail(w, status, detail)
}
