package handlers

import (
	"net/http"
	"time"

	"github.com/videotube/backend/internal/auth"
	"github.com/videotube/backend/internal/models"
)

// CookiePolicy controls the attributes of the session cookies.
type CookiePolicy struct {
	Secure bool
	Domain string
}

// setSessionCookies writes the access and refresh tokens as HTTP-only cookies.
func setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens, policy CookiePolicy) {
	http.SetCookie(w, sessionCookie(auth.AccessCookieName, tokens.AccessToken, tokens.AccessExpiresAt, policy))
	http.SetCookie(w, sessionCookie(auth.RefreshCookieName, tokens.RefreshToken, tokens.RefreshExpiresAt, policy))
}

// clearSessionCookies expires both session cookies.
func clearSessionCookies(w http.ResponseWriter, policy CookiePolicy) {
	expired := time.Unix(0, 0).UTC()
	http.SetCookie(w, sessionCookie(auth.AccessCookieName, "", expired, policy))
	http.SetCookie(w, sessionCookie(auth.RefreshCookieName, "", expired, policy))
}

func sessionCookie(name, value string, expires time.Time, policy CookiePolicy) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   policy.Domain,
		Expires:  expires,
		HttpOnly: true,
		Secure:   policy.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}
