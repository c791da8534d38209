package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alexshd/queuelaw"
	"github.com/alexshd/queuelaw/internal/version"
)

func newModelsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the supported models and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var infos []queuelaw.ModelInfo
			for _, t := range queuelaw.Models() {
				info, _ := queuelaw.Lookup(t)
				infos = append(infos, info)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{"models": infos})
			}

			t := newTable("Model", "Name", "Required", "Optional")
			for _, info := range infos {
				t.Row(string(info.Type), info.Name,
					strings.Join(info.Required, " "),
					strings.Join(optional(info), " "))
			}
			_, err := fmt.Fprintln(out, t.Render())
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

// optional returns the parameters of info that are not required.
func optional(info queuelaw.ModelInfo) []string {
	required := make(map[string]bool, len(info.Required))
	for _, p := range info.Required {
		required[p] = true
	}
	var out []string
	for _, p := range info.Params {
		if !required[p] {
			out = append(out, p)
		}
	}
	return out
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "queuelaw %s\n", version.FullInfo())
		},
	}
}
