package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"sentinela/internal/bootstrap/logging"
	domain "sentinela/internal/domain/deviation"
	"sentinela/internal/errs"
	"sentinela/internal/usecase/deviation"
	"sentinela/internal/usecase/session"
)

type errorResponse struct {
	Error  string   `json:"error"`
	Detail []string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain and usecase errors onto HTTP statuses. Validation
// refusals carry their per-row lines through to the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *domain.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  "validation failed",
			Detail: vErr.Lines,
		})
	case errors.Is(err, deviation.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, session.ErrSessionNotFound):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrEventNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrAccessDenied), errors.Is(err, domain.ErrApprovalForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNothingToSubmit),
		errors.Is(err, deviation.ErrEventNotDecidable),
		errors.Is(err, deviation.ErrJustificationEmpty):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrStoreUnavailable):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		logging.Error(r.Context(), "request failed",
			slog.String("component", "httpapi"),
			slog.String("path", r.URL.Path),
			slog.Any("err", errs.Loggable(err)),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func decodeBody(r *http.Request, into any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return errs.Wrap(err, "decode request body")
	}
	return nil
}
