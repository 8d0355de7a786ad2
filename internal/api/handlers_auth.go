package api

import (
	"net/http"
	"time"

	"github.com/soaringjerry/hrpulse/internal/models"
	"github.com/soaringjerry/hrpulse/internal/services"
)

// userView is the public shape of a user. Role falls back to the default
// role when none was stored.
type userView struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Name      *string   `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserView(u *models.User) userView {
	role := models.DefaultRole
	if u.Role != nil && *u.Role != "" {
		role = *u.Role
	}
	return userView{ID: u.ID, Username: u.Username, Name: u.Name, Role: role, CreatedAt: u.CreatedAt}
}

func newUserViews(list []*models.User) []userView {
	out := make([]userView, 0, len(list))
	for _, u := range list {
		out = append(out, newUserView(u))
	}
	return out
}

type sessionView struct {
	userView
	Token string `json:"token"`
}

func (rt *Router) startSession(w http.ResponseWriter, status int, res *services.AuthResult) {
	rt.auth.SetSessionCookie(w, res.Token, rt.users.TokenTTL())
	writeJSON(w, status, sessionView{userView: newUserView(res.User), Token: res.Token})
}

func (rt *Router) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.users.Register(in)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.startSession(w, http.StatusCreated, res)
}

func (rt *Router) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		rt.writeError(w, r, err)
		return
	}
	res, err := rt.users.Login(in.Username, in.Password)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	rt.startSession(w, http.StatusOK, res)
}

func (rt *Router) handleLogout(w http.ResponseWriter, r *http.Request, _ int64) {
	rt.auth.ClearSessionCookie(w)
	rt.writeMessage(w, r, http.StatusOK, "logged out")
}

func (rt *Router) handleCurrentUser(w http.ResponseWriter, r *http.Request, uid int64) {
	u, err := rt.users.CurrentUser(uid)
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserView(u))
}

func (rt *Router) handleUsers(w http.ResponseWriter, r *http.Request, _ int64) {
	list, err := rt.assessments.Users()
	if err != nil {
		rt.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newUserViews(list))
}
