package httpapi

import (
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	domain "sentinela/internal/domain/deviation"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	sess, err := s.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		Token:     sess.Token,
		Name:      sess.User.Name,
		Email:     sess.User.Email,
		Role:      sess.User.Role,
		CreatedAt: sess.CreatedAt,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Logout(r.Context(), sessionToken(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Dashboard(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	views, err := s.svc.Events(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

// eventTitle decodes the title path segment; titles carry no slashes but may
// carry escaped characters.
func eventTitle(r *http.Request) string {
	raw := chi.URLParam(r, "title")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func (s *Server) handleEventDetail(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.EventDetail(r.Context(), sessionFromContext(r.Context()), eventTitle(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	entries, err := s.svc.AuditTrail(r.Context(), sessionFromContext(r.Context()), eventTitle(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type stageEditRequest struct {
	RowID string `json:"row_id"`
	Field string `json:"field"`
	Value string `json:"value"`
}

func (s *Server) handleStageEdit(w http.ResponseWriter, r *http.Request) {
	var req stageEditRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	err := s.svc.StageEdit(r.Context(), sessionFromContext(r.Context()), eventTitle(r), req.RowID, req.Field, req.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "staged"})
}

type stageReleaseRequest struct {
	RowID string `json:"row_id"`
	Date  string `json:"date"`
	Time  string `json:"time"`
}

func (s *Server) handleStageRelease(w http.ResponseWriter, r *http.Request) {
	var req stageReleaseRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	err := s.svc.StageRelease(r.Context(), sessionFromContext(r.Context()), eventTitle(r), req.RowID, req.Date, req.Time)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "staged"})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	result, err := s.svc.Submit(r.Context(), sessionFromContext(r.Context()), eventTitle(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Approve(r.Context(), sessionFromContext(r.Context()), eventTitle(r)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.StatusApproved)})
}

type rejectRequest struct {
	Justification string `json:"justification"`
}

func (s *Server) handleReject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := decodeBody(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}

	if err := s.svc.Reject(r.Context(), sessionFromContext(r.Context()), eventTitle(r), req.Justification); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(domain.StatusRejected)})
}

func (s *Server) handleReleaseOptions(w http.ResponseWriter, r *http.Request) {
	options, err := s.svc.ReleaseSlots(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, options)
}
