package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/useflyyer/studio/internal/preview"
)

func newURLCmd(a *app) *cobra.Command {
	var flags previewFlags
	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print preview URLs",
		Long: `Print the preview URL for the template, or one URL per --mode.

Without --variables the saved settings are used; a successful run saves the
variables (and modes, when given) back to the settings file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.resolve(cmd, &flags)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(flags.modes) == 0 {
				u, err := preview.PreviewURL(s.input)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, u.String())
			} else {
				frames, err := preview.Plan(s.input, s.modes)
				if err != nil {
					return err
				}
				for _, f := range frames {
					fmt.Fprintln(out, f.URL.String())
				}
			}
			return a.commit(s)
		},
	}
	flags.register(cmd)
	return cmd
}
