// Command render turns a profile file into a standalone portfolio page
// without running the server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/janisto/portfolio-builder/internal/profile"
	"github.com/janisto/portfolio-builder/internal/render"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		profilePath string
		templateID  string
		separator   string
		outPath     string
	)

	root := &cobra.Command{
		Use:   "render",
		Short: "Render a portfolio page from a profile file",
		Long: `Render a portfolio page from a profile file.

Examples:
  render --profile jane.yaml --template creative-bold --out index.html
  render --profile jane.json > index.html
  render templates`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if profilePath == "" {
				return fmt.Errorf("--profile is required")
			}
			p, err := loadProfile(profilePath)
			if err != nil {
				return err
			}
			if _, ok := render.ParseTemplateID(templateID); !ok {
				fmt.Fprintf(cmd.ErrOrStderr(), "unknown template %q, using %s\n", templateID, render.DefaultTemplate)
			}

			html, err := render.Render(&p, templateID, render.WithSeparator(separator))
			if err != nil {
				return err
			}

			if outPath == "" || outPath == "-" {
				_, err = io.WriteString(cmd.OutOrStdout(), html)
				return err
			}
			if err := os.WriteFile(outPath, []byte(html), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", outPath, len(html))
			return nil
		},
	}
	root.Flags().StringVarP(&profilePath, "profile", "p", "", "profile file (.yaml, .yml or .json)")
	root.Flags().StringVarP(&templateID, "template", "t", string(render.DefaultTemplate), "template id")
	root.Flags().StringVar(&separator, "separator", render.DefaultSeparator, "separator for inline lists")
	root.Flags().StringVarP(&outPath, "out", "o", "", "output file, stdout when empty")

	root.AddCommand(newTemplatesCmd())
	return root
}

func newTemplatesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "templates",
		Short: "List the template catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tBEST FOR")
			for _, t := range render.Catalogue() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Name, strings.Join(t.BestFor, ", "))
			}
			return w.Flush()
		},
	}
}

// loadProfile decodes a profile from YAML or JSON, chosen by extension.
func loadProfile(path string) (profile.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return profile.Profile{}, fmt.Errorf("reading profile: %w", err)
	}

	var p profile.Profile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &p)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	default:
		return profile.Profile{}, fmt.Errorf("unsupported profile format %q", filepath.Ext(path))
	}
	if err != nil {
		return profile.Profile{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return profile.Normalize(p), nil
}
