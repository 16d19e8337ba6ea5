package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/useflyyer/studio/internal/variables"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect or reset the saved settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the saved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := a.fileStore()
			vs, saved, err := store.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			source := store.Path()
			if !saved {
				source += " (defaults)"
			}
			fmt.Fprintf(out, "file: %s\n", source)
			fmt.Fprintf(out, "ratio: %s\n", strconv.FormatFloat(vs.Ratio, 'f', -1, 64))
			fmt.Fprintf(out, "modes: %s\n", vs.Modes)
			text := vs.Variables
			if obj, err := variables.Parse(vs.Variables); err == nil {
				text = variables.Format(obj)
			}
			fmt.Fprintf(out, "variables:\n%s\n", text)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Delete the saved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := a.fileStore()
			if err := store.Reset(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", store.Path())
			return nil
		},
	})
	return cmd
}
