package middleware

import (
	"context"
	"net/http"
	"strings"
)

type hxContextKey struct{}

// HX is the htmx view of a request, decoded from its HX-* headers.
type HX struct {
	Request        bool
	Boosted        bool
	HistoryRestore bool
	Target         string
	CurrentURL     string
}

// Fragment reports whether the caller swaps a partial into the page.
// Boosted links and history restores expect the full document.
func (h HX) Fragment() bool {
	return h.Request && !h.Boosted && !h.HistoryRestore
}

func parseHX(header http.Header) HX {
	flag := func(name string) bool { return strings.EqualFold(header.Get(name), "true") }
	return HX{
		Request:        flag("HX-Request"),
		Boosted:        flag("HX-Boosted"),
		HistoryRestore: flag("HX-History-Restore-Request"),
		Target:         header.Get("HX-Target"),
		CurrentURL:     header.Get("HX-Current-URL"),
	}
}

// HTMX stores the decoded HX headers in the request context. Fragment and
// full page responses share URLs, so every response varies on HX-Request.
func HTMX() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "HX-Request")
			ctx := context.WithValue(r.Context(), hxContextKey{}, parseHX(r.Header))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HXFromContext returns the htmx request info; the zero value when absent.
func HXFromContext(ctx context.Context) HX {
	hx, _ := ctx.Value(hxContextKey{}).(HX)
	return hx
}

// ReplaceURL asks htmx to swap the browser location for target without
// adding a history entry.
func ReplaceURL(w http.ResponseWriter, target string) {
	w.Header().Set("HX-Replace-Url", target)
}
