package ui

import (
	"fmt"
	"html/template"
	"math"
	"net/url"
	"strconv"

	"github.com/useflyyer/studio/internal/help"
	"github.com/useflyyer/studio/internal/preview"
	"github.com/useflyyer/studio/internal/settings"
)

// PageData is the full studio page.
type PageData struct {
	Title     string
	Help      help.Panel
	CSRFToken string
	Action    string
	Form      FormView
	Agents    []AgentOption
	Workspace WorkspaceView
}

// FormView carries the values shown in the form and their inline errors.
type FormView struct {
	Template  string
	Base      string
	Variables string
	Agent     string
	Errors    map[string]string
}

// Error returns the inline message for field.
func (f FormView) Error(field string) string {
	return f.Errors[field]
}

// AgentOption is one entry of the agent picker.
type AgentOption struct {
	ID       string
	Label    string
	Selected bool
}

// WorkspaceView is the part of the page refreshed by mode and zoom controls.
type WorkspaceView struct {
	CSRFToken  string
	RatioURL   string
	Ratio      string
	RatioLabel string
	Modes      []ModeOption
	Frames     []FrameView
	Errors     []string
}

// ModeOption is one mode toggle button.
type ModeOption struct {
	ID        string
	Label     string
	Active    bool
	ToggleURL string
}

// FrameView is one scaled iframe.
type FrameView struct {
	Mode           string
	Label          string
	SizeLabel      string
	Src            string
	ContainerStyle template.CSS
	FrameStyle     template.CSS
}

func newFrameView(f preview.Frame, ratio float64) FrameView {
	w := formatPx(float64(f.Width) * ratio)
	h := formatPx(float64(f.Height) * ratio)
	return FrameView{
		Mode:           string(f.Mode),
		Label:          f.Label,
		SizeLabel:      fmt.Sprintf("%dpx x %dpx", f.Width, f.Height),
		Src:            f.URL.String(),
		ContainerStyle: template.CSS(fmt.Sprintf("width: %spx; height: %spx;", w, h)),
		FrameStyle: template.CSS(fmt.Sprintf("width: %dpx; height: %dpx; transform: scale(%s);",
			f.Width, f.Height, strconv.FormatFloat(ratio, 'f', -1, 64))),
	}
}

func formatPx(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func formView(input preview.FormInput, errs preview.FieldErrors) FormView {
	return FormView{
		Template:  input.Template,
		Base:      input.Base,
		Variables: input.Variables,
		Agent:     input.Agent,
		Errors:    errs.Messages(),
	}
}

func agentOptions(selected string) []AgentOption {
	agents := preview.Agents()
	out := make([]AgentOption, 0, len(agents))
	for _, a := range agents {
		out = append(out, AgentOption{ID: a.ID, Label: a.Label, Selected: a.ID == selected})
	}
	return out
}

// workspaceView renders applied with the stored view settings. Applied input
// that cannot be built produces error lines instead of frames.
func workspaceView(applied preview.FormInput, vs settings.ViewSettings, csrf string) WorkspaceView {
	query := pageQuery(applied)
	view := WorkspaceView{
		CSRFToken:  csrf,
		RatioURL:   withQuery("/ratio", query),
		Ratio:      strconv.FormatFloat(vs.Ratio, 'f', -1, 64),
		RatioLabel: fmt.Sprintf("%d%%", int(math.Round(vs.Ratio*100))),
	}
	for _, m := range preview.Modes() {
		view.Modes = append(view.Modes, ModeOption{
			ID:        string(m),
			Label:     m.Label(),
			Active:    vs.Modes.Has(m),
			ToggleURL: withQuery("/modes/"+string(m), query),
		})
	}

	frames, err := preview.Plan(applied, vs.Modes)
	if err != nil {
		view.Errors = sortedMessages(preview.Validate(applied))
		if len(view.Errors) == 0 {
			view.Errors = []string{err.Error()}
		}
		return view
	}
	for _, f := range frames {
		view.Frames = append(view.Frames, newFrameView(f, vs.Ratio))
	}
	return view
}

func sortedMessages(errs preview.FieldErrors) []string {
	order := []string{preview.FieldBase, preview.FieldTemplate, preview.FieldVariables}
	var out []string
	for _, field := range order {
		if e := errs.Field(field); e != nil {
			out = append(out, e.Message())
		}
	}
	return out
}

// pageQuery is the query string that reproduces the applied form state.
func pageQuery(input preview.FormInput) url.Values {
	q := url.Values{}
	q.Set("template", input.Template)
	q.Set("base", input.Base)
	if input.Agent != "" {
		q.Set("agent", input.Agent)
	}
	return q
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
