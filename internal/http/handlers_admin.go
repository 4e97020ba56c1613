package http

import (
	"net/http"

	"fooddrive/internal/auth"
	"fooddrive/internal/core"
	"fooddrive/internal/log"
)

type adminView struct {
	Subject string
	Roles   []core.Role
	Houses  []core.House
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	v := adminView{Roles: core.Roles(), Houses: core.Houses()}
	if c, ok := auth.FromContext(r.Context()); ok {
		v.Subject = c.Subject
	}
	s.render(w, r, http.StatusOK, "admin.html", v)
}

// handleSession trades a token from the identity provider for a session cookie.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	token := p.Get("token")
	if token == "" {
		token = auth.TokenFromRequest(r)
	}

	if s.auth == nil || token == "" {
		s.unauthorized(w, r)
		return
	}
	claims, err := s.auth.Verify(token)
	if err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentAuth).InfoContext(r.Context(), "Rejected admin token", log.FieldError, err)
		s.unauthorized(w, r)
		return
	}

	auth.SetSession(w, r, token, claims.ExpiresAt.Time)
	log.FromContext(r.Context()).WithComponent(log.ComponentAuth).InfoContext(r.Context(), "Admin session started", "subject", claims.Subject)

	switch {
	case isHTMX(r):
		NewHTMXResponse().Header("HX-Redirect", "/admin").Write(w)
	case p.IsJSON():
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "expiresAt": claims.ExpiresAt.Time})
	default:
		http.Redirect(w, r, "/admin", http.StatusSeeOther)
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	if isHTMX(r) {
		NewHTMXResponse().Header("HX-Redirect", "/").Write(w)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
