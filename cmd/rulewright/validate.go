package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/HendryAvila/rulewright/internal/resources"
	"github.com/HendryAvila/rulewright/internal/rules"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var (
	okStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	failStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headingStyle = lipgloss.NewStyle().Bold(true)
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check rule documents against the .mdc format",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(cmd.ErrOrStderr(), false); err != nil {
			return err
		}
		invalid := 0
		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			v := rules.Validate(string(data))
			printValidation(cmd.OutOrStdout(), path, v)
			if !v.Valid {
				invalid++
			}
		}
		if invalid > 0 {
			return fmt.Errorf("%d of %d documents invalid", invalid, len(args))
		}
		return nil
	},
}

func printValidation(w io.Writer, path string, v rules.Validation) {
	mark := okStyle.Render("✓ valid")
	if !v.Valid {
		mark = failStyle.Render("✗ invalid")
	}
	fmt.Fprintf(w, "%s %s %s\n", mark, headingStyle.Render(path),
		detailStyle.Render("("+string(v.Classification)+")"))
	for _, issue := range v.Issues {
		fmt.Fprintf(w, "  %s %s\n", failStyle.Render("error"), issue)
	}
	for _, warning := range v.Warnings {
		fmt.Fprintf(w, "  %s %s\n", warnStyle.Render("warn "), warning)
	}
}

var previewWidth int

var previewCmd = &cobra.Command{
	Use:   "preview [file]",
	Short: "Render a rule document as terminal markdown",
	Long: `Render a rule document as terminal markdown. Without a file, renders the
format reference served as rules://format/reference.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := resources.FormatReference()
		if len(args) == 1 {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}
			text = previewMarkdown(string(data))
		}

		out := cmd.OutOrStdout()
		if f, ok := out.(*os.File); !ok || !isatty.IsTerminal(f.Fd()) {
			_, err := io.WriteString(out, text)
			return err
		}

		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(previewWidth),
		)
		if err != nil {
			return fmt.Errorf("creating markdown renderer: %w", err)
		}
		rendered, err := renderer.Render(text)
		if err != nil {
			return fmt.Errorf("rendering markdown: %w", err)
		}
		_, err = io.WriteString(out, rendered)
		return err
	},
}

func init() {
	previewCmd.Flags().IntVar(&previewWidth, "width", 100, "Word wrap width")
}

// previewMarkdown shows the parsed frontmatter as a table and keeps the
// rule body verbatim in a code block, since markdown would mangle it.
func previewMarkdown(text string) string {
	doc := rules.Parse(text)
	var b strings.Builder
	title := doc.Title
	if title == "" {
		title = doc.Name
	}
	if title != "" {
		fmt.Fprintf(&b, "# %s\n\n", title)
	}
	if doc.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", doc.Description)
	}
	b.WriteString("| field | value |\n|---|---|\n")
	fmt.Fprintf(&b, "| globs | `%s` |\n", strings.Join(doc.Frontmatter.Globs, ", "))
	fmt.Fprintf(&b, "| alwaysApply | %t |\n", doc.Frontmatter.AlwaysApply)
	if doc.Metadata.Priority != "" {
		fmt.Fprintf(&b, "| priority | %s |\n", doc.Metadata.Priority)
	}
	if len(doc.Metadata.Tags) > 0 {
		fmt.Fprintf(&b, "| tags | %s |\n", strings.Join(doc.Metadata.Tags, ", "))
	}
	b.WriteString("\n```yaml\n")
	b.WriteString(strings.TrimRight(text, "\n"))
	b.WriteString("\n```\n")
	return b.String()
}
