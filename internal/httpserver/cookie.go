package httpserver

import (
	"net/http"
	"time"
)

// CookieOptions is the attribute set used for the session cookie. Setting
// and clearing must use the same options or browsers keep the old cookie.
type CookieOptions struct {
	Name     string
	HTTPOnly bool
	Secure   bool
	SameSite http.SameSite
	Path     string
	MaxAge   time.Duration
}

// BuildCookieOptions derives the cookie policy for an environment.
// Production pairs Secure with SameSite=None for the cross-site frontend;
// everything else uses Lax over plain HTTP. MaxAge does not vary.
func BuildCookieOptions(name string, production bool, maxAge time.Duration) CookieOptions {
	opts := CookieOptions{
		Name:     name,
		HTTPOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   maxAge,
	}
	if production {
		opts.Secure = true
		opts.SameSite = http.SameSiteNoneMode
	}
	return opts
}

func (o CookieOptions) writeSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     o.Name,
		Value:    token,
		Path:     o.Path,
		HttpOnly: o.HTTPOnly,
		Secure:   o.Secure,
		SameSite: o.SameSite,
		MaxAge:   int(o.MaxAge / time.Second),
	})
}

func (o CookieOptions) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     o.Name,
		Value:    "",
		Path:     o.Path,
		HttpOnly: o.HTTPOnly,
		Secure:   o.Secure,
		SameSite: o.SameSite,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
}

func (o CookieOptions) readSessionCookie(r *http.Request) string {
	c, err := r.Cookie(o.Name)
	if err != nil {
		return ""
	}
	return c.Value
}
