package server

import (
	"net/http"
	"time"
)

// setAccessCookie delivers the access token over an httpOnly, secure,
// SameSite=None cookie so the browser clients on other origins can carry it.
func (s *Server) setAccessCookie(w http.ResponseWriter, accessToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieAccessToken,
		Value:    accessToken,
		Path:     "/",
		Domain:   s.config.Cookies.Domain,
		MaxAge:   int(s.config.Cookies.AccessMaxAge.Std().Seconds()),
		HttpOnly: true,
		Secure:   s.config.Cookies.Secure,
		SameSite: http.SameSiteNoneMode,
	})
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieRefreshToken,
		Value:    refreshToken,
		Path:     "/",
		Domain:   s.config.Cookies.Domain,
		MaxAge:   int(s.config.Tokens.RefreshTTL.Std().Seconds()),
		HttpOnly: true,
		Secure:   s.config.Cookies.Secure,
		SameSite: http.SameSiteNoneMode,
	})
}

func (s *Server) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{CookieAccessToken, CookieRefreshToken} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Domain:   s.config.Cookies.Domain,
			Expires:  time.Unix(0, 0).UTC(),
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   s.config.Cookies.Secure,
			SameSite: http.SameSiteNoneMode,
		})
	}
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
