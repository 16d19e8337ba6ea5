package ui

import (
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/useflyyer/studio/internal/help"
	custommw "github.com/useflyyer/studio/internal/httpserver/middleware"
	"github.com/useflyyer/studio/internal/observability"
	"github.com/useflyyer/studio/internal/preview"
	"github.com/useflyyer/studio/internal/settings"
)

const pageTitle = "Flayyer Studio"

// SettingsStore loads and saves view settings for a browser session.
type SettingsStore interface {
	Load(r *http.Request) (settings.ViewSettings, bool)
	Save(w http.ResponseWriter, v settings.ViewSettings) error
}

// Defaults seed the form when the page query does not name a value.
type Defaults struct {
	Host     string
	Port     string
	Template string
}

func (d Defaults) withFallbacks() Defaults {
	if d.Host == "" {
		d.Host = "localhost"
	}
	if d.Port == "" {
		d.Port = "7777"
	}
	if d.Template == "" {
		d.Template = "main"
	}
	return d
}

// Dependencies collects external services required by the UI handlers.
type Dependencies struct {
	Settings SettingsStore
	Help     help.Panel
	Defaults Defaults
}

// Handlers exposes HTTP handlers for the studio page and its fragments.
type Handlers struct {
	settings SettingsStore
	help     help.Panel
	defaults Defaults
	tmpl     *template.Template
}

// NewHandlers wires the UI handler set.
func NewHandlers(deps Dependencies) (*Handlers, error) {
	if deps.Settings == nil {
		return nil, errors.New("ui: settings store is required")
	}
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &Handlers{
		settings: deps.Settings,
		help:     deps.Help,
		defaults: deps.Defaults.withFallbacks(),
		tmpl:     tmpl,
	}, nil
}

// Studio renders the page for the applied state in the query string.
func (h *Handlers) Studio(w http.ResponseWriter, r *http.Request) {
	vs, _ := h.settings.Load(r)
	applied := h.appliedInput(r.URL.Query(), vs)
	page := h.page(r, applied, vs)
	page.Form = formView(applied, preview.Validate(applied))
	h.render(w, r, http.StatusOK, "base", page)
}

// Submit validates the form. Field errors re-render the page with 422 and
// leave the stored settings untouched; success saves and redirects.
func (h *Handlers) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	input := preview.FormInput{
		Template:  r.PostForm.Get("template"),
		Base:      r.PostForm.Get("base"),
		Variables: r.PostForm.Get("variables"),
		Agent:     strings.TrimSpace(r.PostForm.Get("agent")),
	}
	stored, _ := h.settings.Load(r)

	if errs := preview.Validate(input); len(errs) > 0 {
		h.rejectForm(w, r, input, stored, errs)
		return
	}

	next := stored
	next.Variables = input.Variables
	if raw := r.PostForm.Get("ratio"); raw != "" {
		if ratio, err := strconv.ParseFloat(raw, 64); err == nil {
			next.Ratio = ratio
		}
	}
	if _, ok := r.PostForm["modes_submitted"]; ok {
		next.Modes, _ = preview.ParseModeSet(r.PostForm["modes"])
	}
	if err := h.settings.Save(w, next); err != nil {
		if errors.Is(err, settings.ErrTooLarge) {
			h.rejectForm(w, r, input, stored, preview.FieldErrors{{
				Field: preview.FieldVariables,
				Kind:  preview.InvalidVariables,
				Err:   fmt.Errorf("variables are %w", err),
			}})
			return
		}
		h.saveFailed(w, r, err)
		return
	}
	http.Redirect(w, r, withQuery("/", pageQuery(input)), http.StatusSeeOther)
}

// rejectForm re-renders the page with inline errors and status 422. The
// stored settings stay as they were.
func (h *Handlers) rejectForm(w http.ResponseWriter, r *http.Request, input preview.FormInput, stored settings.ViewSettings, errs preview.FieldErrors) {
	observability.FromContext(r.Context()).Debug("form rejected", zap.Strings("fields", fieldNames(errs)))
	applied := h.appliedInput(r.URL.Query(), stored)
	page := h.page(r, applied, stored)
	page.Form = formView(input, errs)
	h.render(w, r, http.StatusUnprocessableEntity, "base", page)
}

// ToggleMode flips one preview mode in the stored settings.
func (h *Handlers) ToggleMode(w http.ResponseWriter, r *http.Request) {
	mode, ok := preview.ParseMode(chi.URLParam(r, "mode"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	vs, _ := h.settings.Load(r)
	vs = vs.ToggleMode(mode)
	if !h.save(w, r, vs) {
		return
	}
	h.respondWorkspace(w, r, vs)
}

// SetRatio stores a new zoom ratio, clamped into range.
func (h *Handlers) SetRatio(w http.ResponseWriter, r *http.Request) {
	ratio, err := strconv.ParseFloat(strings.TrimSpace(r.PostFormValue("ratio")), 64)
	if err != nil {
		http.Error(w, "ratio must be a number", http.StatusUnprocessableEntity)
		return
	}
	vs, _ := h.settings.Load(r)
	vs.Ratio = settings.ClampRatio(ratio)
	if !h.save(w, r, vs) {
		return
	}
	h.respondWorkspace(w, r, vs)
}

// respondWorkspace sends the refreshed workspace fragment to htmx callers and
// redirects plain form posts back to the page.
func (h *Handlers) respondWorkspace(w http.ResponseWriter, r *http.Request, vs settings.ViewSettings) {
	applied := h.appliedInput(r.URL.Query(), vs)
	location := withQuery("/", pageQuery(applied))
	if custommw.HXFromContext(r.Context()).Fragment() {
		custommw.ReplaceURL(w, location)
		view := workspaceView(applied, vs, custommw.CSRFTokenFromContext(r.Context()))
		h.render(w, r, http.StatusOK, "workspace", view)
		return
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func (h *Handlers) save(w http.ResponseWriter, r *http.Request, vs settings.ViewSettings) bool {
	if err := h.settings.Save(w, vs); err != nil {
		h.saveFailed(w, r, err)
		return false
	}
	return true
}

// saveFailed answers a settings write error. An oversized blob is the
// caller's input, so it is a 422 rather than a server fault.
func (h *Handlers) saveFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, settings.ErrTooLarge) {
		observability.FromContext(r.Context()).Warn("settings too large", zap.Error(err))
		http.Error(w, "settings "+err.Error()+"; shorten the variables", http.StatusUnprocessableEntity)
		return
	}
	observability.FromContext(r.Context()).Error("save settings failed", zap.Error(err))
	http.Error(w, "unable to save settings", http.StatusInternalServerError)
}

func (h *Handlers) page(r *http.Request, applied preview.FormInput, vs settings.ViewSettings) PageData {
	csrf := custommw.CSRFTokenFromContext(r.Context())
	return PageData{
		Title:     pageTitle,
		Help:      h.help,
		CSRFToken: csrf,
		Action:    withQuery("/", pageQuery(applied)),
		Agents:    agentOptions(applied.Agent),
		Workspace: workspaceView(applied, vs, csrf),
	}
}

// appliedInput reads the applied form state from the page query. base wins
// over host and port; variables come from the stored settings.
func (h *Handlers) appliedInput(q url.Values, vs settings.ViewSettings) preview.FormInput {
	name := strings.TrimSpace(q.Get("template"))
	if name == "" {
		name = h.defaults.Template
	}
	base := strings.TrimSpace(q.Get("base"))
	if base == "" {
		host := firstNonEmpty(q.Get("host"), h.defaults.Host)
		port := firstNonEmpty(q.Get("port"), h.defaults.Port)
		base = "http://" + net.JoinHostPort(host, port)
	}
	return preview.FormInput{
		Template:  name,
		Base:      base,
		Variables: vs.Variables,
		Agent:     strings.TrimSpace(q.Get("agent")),
	}
}

func fieldNames(errs preview.FieldErrors) []string {
	names := make([]string, 0, len(errs))
	for _, e := range errs {
		names = append(names, e.Field)
	}
	return names
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
