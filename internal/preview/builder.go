// Package preview turns the studio form into template preview URLs.
package preview

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"

	"github.com/useflyyer/studio/internal/variables"
)

const htmlSuffix = ".html"

// Query parameters appended to every frame URL.
const (
	ParamWidth     = "_w"
	ParamHeight    = "_h"
	ParamUserAgent = "_ua"
)

// FormInput is the raw form submission.
type FormInput struct {
	Template  string
	Base      string
	Variables string
	Agent     string
}

// Frame is one preview surface: a mode, its pixel size and the URL it loads.
type Frame struct {
	Mode   Mode
	Label  string
	Width  int
	Height int
	URL    *url.URL
}

var hostProfile = idna.New(idna.MapForLookup(), idna.Transitional(false), idna.StrictDomainName(false))

// BuildURL resolves the template against the base URL and encodes the
// variables as its query string.
func BuildURL(input FormInput) (*url.URL, error) {
	base, err := ParseBase(input.Base)
	if err != nil {
		return nil, err
	}
	vars, err := ParseVariables(input.Variables)
	if err != nil {
		return nil, err
	}
	ref, err := parseTemplate(input.Template)
	if err != nil {
		return nil, err
	}
	u := base.ResolveReference(ref)
	u.RawQuery = variables.Stringify(vars)
	u.ForceQuery = false
	return u, nil
}

// Validate reports every failing field instead of stopping at the first one.
func Validate(input FormInput) FieldErrors {
	var errs FieldErrors
	var fe *FieldError
	if _, err := ParseBase(input.Base); errors.As(err, &fe) {
		errs = append(errs, fe)
	}
	if _, err := parseTemplate(input.Template); errors.As(err, &fe) {
		errs = append(errs, fe)
	}
	if _, err := ParseVariables(input.Variables); errors.As(err, &fe) {
		errs = append(errs, fe)
	}
	return errs
}

// ParseBase parses raw as an absolute URL with a host.
func ParseBase(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	u, err := url.Parse(trimmed)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, &FieldError{Field: FieldBase, Kind: InvalidURL, Err: fmt.Errorf("invalid URL %q: %w", trimmed, err)}
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, &FieldError{Field: FieldBase, Kind: InvalidURL, Err: fmt.Errorf("invalid URL %q: must be absolute, e.g. http://localhost:7777", trimmed)}
	}
	host, err := normalizeHost(u.Hostname())
	if err != nil {
		return nil, &FieldError{Field: FieldBase, Kind: InvalidURL, Err: fmt.Errorf("invalid host %q: %w", u.Hostname(), err)}
	}
	if port := u.Port(); port != "" {
		if _, err := strconv.ParseUint(port, 10, 16); err != nil {
			return nil, &FieldError{Field: FieldBase, Kind: InvalidURL, Err: fmt.Errorf("invalid port %q", port)}
		}
		host = joinHostPort(host, port)
	} else if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	u.Host = host
	return u, nil
}

func joinHostPort(host, port string) string {
	if strings.Contains(host, ":") {
		return "[" + host + "]:" + port
	}
	return host + ":" + port
}

// normalizeHost lowercases ASCII hosts and converts internationalised ones to punycode.
func normalizeHost(host string) (string, error) {
	if !isASCII(host) {
		return hostProfile.ToASCII(host)
	}
	return strings.ToLower(host), nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func parseTemplate(raw string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, &FieldError{Field: FieldTemplate, Kind: InvalidURL, Err: fmt.Errorf("invalid template %q: %w", raw, err)}
	}
	return ref, nil
}

// ParseVariables parses the JSON5 variables text into an object.
func ParseVariables(raw string) (*variables.Object, error) {
	obj, err := variables.Parse(raw)
	if err != nil {
		return nil, &FieldError{Field: FieldVariables, Kind: InvalidVariables, Err: err}
	}
	return obj, nil
}

// PreviewURL is BuildURL with the .html page suffix applied, the address a
// frame loads before any size hints are added.
func PreviewURL(input FormInput) (*url.URL, error) {
	u, err := BuildURL(input)
	if err != nil {
		return nil, err
	}
	return WithHTMLSuffix(u), nil
}

// WithHTMLSuffix returns a copy of u whose path ends in .html.
func WithHTMLSuffix(base *url.URL) *url.URL {
	u := *base
	if base.User != nil {
		user := *base.User
		u.User = &user
	}
	if !strings.HasSuffix(u.Path, htmlSuffix) {
		u.Path += htmlSuffix
		if u.RawPath != "" {
			u.RawPath += htmlSuffix
		}
	}
	return &u
}

// ModeURL derives the frame URL for mode without modifying base.
func ModeURL(base *url.URL, mode Mode, agent string) *url.URL {
	u := WithHTMLSuffix(base)
	w, h := mode.Dimensions()
	q := setParam(u.RawQuery, ParamWidth, strconv.Itoa(w))
	q = setParam(q, ParamHeight, strconv.Itoa(h))
	if agent = strings.TrimSpace(agent); agent != "" {
		q = setParam(q, ParamUserAgent, agent)
	}
	u.RawQuery = q
	return u
}

// setParam replaces every key pair in raw with a single trailing key=value,
// leaving the order of the other pairs untouched.
func setParam(raw, key, value string) string {
	var kept []string
	if raw != "" {
		for _, pair := range strings.Split(raw, "&") {
			name, _, _ := strings.Cut(pair, "=")
			if decoded, err := url.QueryUnescape(name); err == nil && decoded == key {
				continue
			}
			kept = append(kept, pair)
		}
	}
	kept = append(kept, variables.Escape(key)+"="+variables.Escape(value))
	return strings.Join(kept, "&")
}

// Plan builds the base URL once and derives one frame per active mode.
func Plan(input FormInput, modes ModeSet) ([]Frame, error) {
	base, err := BuildURL(input)
	if err != nil {
		return nil, err
	}
	active := modes.Modes()
	frames := make([]Frame, 0, len(active))
	for _, m := range active {
		w, h := m.Dimensions()
		frames = append(frames, Frame{
			Mode:   m,
			Label:  m.Label(),
			Width:  w,
			Height: h,
			URL:    ModeURL(base, m, input.Agent),
		})
	}
	return frames, nil
}
