package utils

import (
	"net/http"
	"strings"
	"time"
)

// IsSecureRequest reports whether the request arrived over TLS, directly or
// via a proxy that set X-Forwarded-Proto.
func IsSecureRequest(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}

// SetCookie sets a cookie with consistent defaults (HttpOnly, SameSite=Lax,
// Secure per IsSecureRequest).
func SetCookie(w http.ResponseWriter, r *http.Request, name, value string, expires time.Time) {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, c)
}

// ClearCookie removes a cookie using the same security flags.
func ClearCookie(w http.ResponseWriter, r *http.Request, name string) {
	c := &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   IsSecureRequest(r),
		SameSite: http.SameSiteLaxMode,
	}
	http.SetCookie(w, c)
}
