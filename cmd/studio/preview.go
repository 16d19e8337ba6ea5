package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/useflyyer/studio/internal/preview"
	"github.com/useflyyer/studio/internal/settings"
)

// previewFlags are the form fields shared by url and snapshot.
type previewFlags struct {
	base      string
	template  string
	variables string
	agent     string
	modes     []string
}

func (f *previewFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.base, "base", "", "base URL of the template server (default from STUDIO_DEFAULT_HOST/PORT)")
	cmd.Flags().StringVar(&f.template, "template", "", "template name (default from STUDIO_DEFAULT_TEMPLATE)")
	cmd.Flags().StringVar(&f.variables, "variables", "", "JSON5 object of template variables (default: saved settings)")
	cmd.Flags().StringVar(&f.agent, "agent", "", "crawler agent forwarded as _ua, e.g. whatsapp")
	cmd.Flags().StringArrayVar(&f.modes, "mode", nil, "preview mode: thumbnail, banner, square or story (repeatable)")
}

// session is a resolved command line submission plus the settings it started from.
type session struct {
	input  preview.FormInput
	modes  preview.ModeSet
	stored settings.ViewSettings
}

func (a *app) resolve(cmd *cobra.Command, f *previewFlags) (session, error) {
	stored, _, err := a.fileStore().Load()
	if err != nil {
		return session{}, err
	}
	s := session{
		input: preview.FormInput{
			Base:      firstNonEmpty(f.base, a.cfg.Studio.DefaultBase()),
			Template:  firstNonEmpty(f.template, a.cfg.Studio.DefaultTemplate),
			Variables: stored.Variables,
			Agent:     strings.TrimSpace(f.agent),
		},
		modes:  stored.Modes,
		stored: stored,
	}
	if cmd.Flags().Changed("variables") {
		s.input.Variables = f.variables
	}
	if len(f.modes) > 0 {
		modes, unknown := preview.ParseModeSet(f.modes)
		if len(unknown) > 0 {
			return session{}, fmt.Errorf("unknown mode %s (want one of %s)", strings.Join(unknown, ", "), preview.NewModeSet(preview.Modes()...))
		}
		s.modes = modes
	}
	if errs := preview.Validate(s.input); len(errs) > 0 {
		return session{}, errs
	}
	return s, nil
}

// commit saves the submission as the new file settings.
func (a *app) commit(s session) error {
	next := s.stored
	next.Variables = s.input.Variables
	next.Modes = s.modes
	if err := a.fileStore().Save(next); err != nil {
		return err
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
