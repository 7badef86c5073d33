// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package handlers

import (
	"net/http"

	"github.com/tarnhelm/bfme2rpt/web/auth"
)

type loginRequest struct {
	Handle   string `json:"handle"`
	Password string `json:"password"`
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSONBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.store.ValidateCredentials(r.Context(), req.Handle, req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "authentication error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "invalid handle or password")
		return
	}

	session := h.sessions.Create(auth.User{Handle: user.Handle, UserName: user.UserName})
	auth.SetSessionCookie(w, session)

	writeJSON(w, http.StatusOK, map[string]string{"handle": user.Handle})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
		h.sessions.Delete(cookie.Value)
	}
	auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handlers) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session := auth.GetSessionFromRequest(r, h.sessions)
		if session == nil {
			if h.autoAuthUser != nil {
				session = h.sessions.Create(*h.autoAuthUser)
				auth.SetSessionCookie(w, session)
			} else {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}
		}
		next(w, r)
	}
}
