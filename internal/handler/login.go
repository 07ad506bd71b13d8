package handler

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/akluev/vendops/internal/utils"
	authpkg "github.com/akluev/vendops/pkg/auth"
)

// sessionTTL bounds how long an operator session lives before re-login.
const sessionTTL = 12 * time.Hour

// loginHandler authenticates an operator against the configured credentials
// and sets the access_token cookie. Accepts form encoding or a JSON body.
func (h *Handler) loginHandler(w http.ResponseWriter, r *http.Request) {
	login, password := readCredentials(r)
	if login == "" || password == "" {
		http.Error(w, "login and password required", http.StatusBadRequest)
		return
	}

	wantLogin := utils.GetEnv("DASHBOARD_LOGIN", "")
	wantPassword := utils.GetEnv("DASHBOARD_PASSWORD", "")
	if wantLogin == "" || wantPassword == "" {
		log.Printf("loginHandler: dashboard credentials not configured")
		http.Error(w, "login disabled", http.StatusServiceUnavailable)
		return
	}
	if subtle.ConstantTimeCompare([]byte(login), []byte(wantLogin)) != 1 ||
		subtle.ConstantTimeCompare([]byte(password), []byte(wantPassword)) != 1 {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	role := utils.GetEnv("DASHBOARD_ROLE", "manager")
	token, err := authpkg.IssueToken(h.jwtSecret, login, role, h.jwtIssuer, h.jwtAud, sessionTTL)
	if err != nil {
		log.Printf("loginHandler: issue token: %v", err)
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	utils.SetCookie(w, r, "access_token", token, time.Now().Add(sessionTTL))
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "role": role})
}

// logoutHandler clears the session cookie.
func (h *Handler) logoutHandler(w http.ResponseWriter, r *http.Request) {
	utils.ClearCookie(w, r, "access_token")
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// readCredentials pulls login/password from a JSON body or form fields.
func readCredentials(r *http.Request) (login, password string) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var body struct {
			Login    string `json:"login"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return "", ""
		}
		return strings.TrimSpace(body.Login), body.Password
	}
	if err := r.ParseForm(); err != nil {
		return "", ""
	}
	return strings.TrimSpace(r.FormValue("login")), r.FormValue("password")
}
