package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/sheetkeeper/internal/common"
	"github.com/dmitrijs2005/sheetkeeper/internal/server/models"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

const maxBodyBytes = 1 << 20

type response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func success() response { return response{Success: true} }

func failure(msg string) response { return response{Message: msg} }

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, failure("invalid request body"))
		return false
	}
	return true
}

// statusFor maps service errors onto HTTP status codes and a client-facing
// message. Details of internal failures are logged, not returned.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return http.StatusNotFound, "character not found"
	case errors.Is(err, common.ErrDenied):
		return http.StatusUnauthorized, "wrong password"
	case errors.Is(err, common.ErrCopyProhibited):
		return http.StatusForbidden, "copying this character is not allowed"
	case errors.Is(err, common.ErrInvalidRecord):
		return http.StatusBadRequest, "invalid character"
	case errors.Is(err, common.ErrVersionConflict):
		return http.StatusConflict, "concurrent update, try again"
	case errors.Is(err, common.ErrAuthCheckFailed):
		return http.StatusInternalServerError, "password check failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, failure(msg))
}

func (h *Handler) editToken(r *http.Request, id string) string {
	c, err := r.Cookie(common.EditCookieName(id))
	if err != nil {
		return ""
	}
	return c.Value
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if h.siteGateEnabled() {
		if err := bcrypt.CompareHashAndPassword(h.opts.SitePasswordHash, []byte(req.Password)); err != nil {
			writeJSON(w, http.StatusUnauthorized, failure("wrong password"))
			return
		}
	}

	s, _ := h.opts.Sessions.Get(r, sessionName)
	s.Values[sessionAuthedKey] = true
	if err := s.Save(r, w); err != nil {
		h.fail(w, r, err)
		return
	}

	h.notifier.NotifyLogin(r.Context(), r)
	writeJSON(w, http.StatusOK, success())
}

func (h *Handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	s, _ := h.opts.Sessions.Get(r, sessionName)
	delete(s.Values, sessionAuthedKey)
	s.Options.MaxAge = -1
	if err := s.Save(r, w); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, success())
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.characters.List(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.characters.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c.Redacted())
}

// handleEdit returns the full record, password included, to holders of an
// edit capability.
func (h *Handler) handleEdit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.access.Guard(r.Context(), id, h.editToken(r, id)); err != nil {
		h.fail(w, r, err)
		return
	}

	c, err := h.characters.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	var c models.Character
	if !decodeJSON(w, r, &c) {
		return
	}

	// overwriting an existing protected record needs its edit capability;
	// a new id is free to claim
	if c.ID != "" {
		err := h.access.Guard(r.Context(), c.ID, h.editToken(r, c.ID))
		if err != nil && !errors.Is(err, common.ErrNotFound) {
			h.fail(w, r, err)
			return
		}
	}

	saved, err := h.characters.Save(r.Context(), &c)
	if err != nil && saved == nil {
		h.fail(w, r, err)
		return
	}
	if err != nil {
		h.logger.Warn(r.Context(), "record saved but index is stale", "id", saved.ID, "err", err)
	}
	writeJSON(w, http.StatusOK, saved.Redacted())
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.access.Guard(r.Context(), id, h.editToken(r, id)); err != nil {
		h.fail(w, r, err)
		return
	}

	err := h.characters.Delete(r.Context(), id)
	if err != nil && !errors.Is(err, common.ErrIndexWriteFailed) {
		h.fail(w, r, err)
		return
	}
	if err != nil {
		h.logger.Warn(r.Context(), "record deleted but index is stale", "id", id, "err", err)
	}

	http.SetCookie(w, h.editCookie(id, "", -1))
	writeJSON(w, http.StatusOK, success())
}

func (h *Handler) handleDuplicate(w http.ResponseWriter, r *http.Request) {
	cp, err := h.characters.Duplicate(r.Context(), chi.URLParam(r, "id"))
	if err != nil && cp == nil {
		h.fail(w, r, err)
		return
	}
	if err != nil {
		h.logger.Warn(r.Context(), "copy saved but index is stale", "id", cp.ID, "err", err)
	}
	writeJSON(w, http.StatusCreated, cp.Redacted())
}

func (h *Handler) handleVerifyPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID       string `json:"id"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ID == "" {
		writeJSON(w, http.StatusBadRequest, failure("id is required"))
		return
	}

	grant, err := h.access.Verify(r.Context(), req.ID, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	http.SetCookie(w, h.editCookie(req.ID, grant.Token, int(h.opts.EditCookieMaxAge.Seconds())))
	writeJSON(w, http.StatusOK, success())
}

func (h *Handler) handleRebuild(w http.ResponseWriter, r *http.Request) {
	list, err := h.characters.Rebuild(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) editCookie(id, token string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     common.EditCookieName(id),
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
