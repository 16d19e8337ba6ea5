package middleware

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

type csrfContextKey struct{}

const (
	defaultCSRFCookieName = "studio_csrf"
	defaultCSRFHeaderName = "X-CSRF-Token"
	defaultCSRFMaxAge     = 24 * time.Hour
	csrfTokenBytes        = 32

	// CSRFFormField is the hidden form field carrying the token for plain form posts.
	CSRFFormField = "csrf_token"
)

var errTokenUnavailable = errors.New("csrf: random source unavailable")

// CSRFConfig controls cookie/header behaviour.
type CSRFConfig struct {
	CookieName string
	CookiePath string
	HeaderName string
	MaxAge     time.Duration
	Secure     bool
}

func (c CSRFConfig) withDefaults() CSRFConfig {
	if c.CookieName == "" {
		c.CookieName = defaultCSRFCookieName
	}
	if c.HeaderName == "" {
		c.HeaderName = defaultCSRFHeaderName
	}
	if c.CookiePath == "" {
		c.CookiePath = "/"
	}
	if c.MaxAge <= 0 {
		c.MaxAge = defaultCSRFMaxAge
	}
	return c
}

// CSRF protects state-changing requests with a double-submit cookie. Every
// request gets a token in its context; POST and friends must echo it in the
// header (htmx) or the csrf_token form field.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	cfg = cfg.withDefaults()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := cfg.issue(w, r)
			if err != nil {
				http.Error(w, "csrf token error", http.StatusInternalServerError)
				return
			}
			if !safeMethod(r.Method) && !cfg.matches(r, token) {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), csrfContextKey{}, token)))
		})
	}
}

// CSRFTokenFromContext returns the token to embed in forms.
func CSRFTokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(csrfContextKey{}).(string)
	return token
}

// issue returns the cookie token, minting and setting a new one when absent.
func (c CSRFConfig) issue(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(c.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}
	raw := securecookie.GenerateRandomKey(csrfTokenBytes)
	if raw == nil {
		return "", errTokenUnavailable
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	http.SetCookie(w, &http.Cookie{
		Name:     c.CookieName,
		Value:    token,
		Path:     c.CookiePath,
		HttpOnly: true,
		Secure:   c.Secure || r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(c.MaxAge.Seconds()),
	})
	return token, nil
}

func (c CSRFConfig) matches(r *http.Request, token string) bool {
	submitted := r.Header.Get(c.HeaderName)
	if submitted == "" {
		submitted = r.PostFormValue(CSRFFormField)
	}
	return submitted != "" && subtle.ConstantTimeCompare([]byte(submitted), []byte(token)) == 1
}

func safeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return true
	}
	return false
}
