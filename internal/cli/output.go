package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"

	"github.com/loganshamberger/whatidid/internal/model"
)

// emit writes the command result. JSON (indented) is the default so every
// command stays scriptable; --pretty switches to human-readable text.
func (app *App) emit(w io.Writer, v any) error {
	if !app.Pretty {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	switch t := v.(type) {
	case model.Space:
		prettySpace(w, t)
	case []model.Space:
		for _, sp := range t {
			prettySpace(w, sp)
		}
	case model.Page:
		prettyPage(w, t)
	case []model.Page:
		for _, p := range t {
			prettyPageLine(w, p)
		}
	case model.Link:
		prettyLink(w, t)
	case []model.Link:
		for _, l := range t {
			prettyLink(w, l)
		}
	case []model.SearchResult:
		for _, r := range t {
			prettyResult(w, r)
		}
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return nil
}

var (
	headline = color.New(color.Bold)
	dim      = color.New(color.Faint)
	warnTint = color.New(color.FgYellow)
)

func prettySpace(w io.Writer, sp model.Space) {
	headline.Fprintf(w, "%s", sp.Name)
	dim.Fprintf(w, "  (%s)\n", sp.Slug)
	if sp.Description != "" {
		fmt.Fprintf(w, "  %s\n", sp.Description)
	}
	dim.Fprintf(w, "  id=%s created=%s\n", sp.ID, sp.CreatedAt)
}

func prettyPageLine(w io.Writer, p model.Page) {
	headline.Fprintf(w, "%s", p.Title)
	dim.Fprintf(w, "  [%s v%d]", p.Type, p.Version)
	if len(p.Labels) > 0 {
		dim.Fprintf(w, "  {%s}", strings.Join(p.Labels, ", "))
	}
	fmt.Fprintln(w)
	dim.Fprintf(w, "  id=%s by=%s/%s\n", p.ID, p.CreatedByUser, p.CreatedByAgent)
}

func prettyPage(w io.Writer, p model.Page) {
	prettyPageLine(w, p)
	if p.Content == "" {
		dim.Fprintln(w, "  (no content)")
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, renderBody(p.Content))
}

func prettyLink(w io.Writer, l model.Link) {
	fmt.Fprintf(w, "%s %s %s\n", l.SourceID, color.CyanString(string(l.Relation)), l.TargetID)
}

func prettyResult(w io.Writer, r model.SearchResult) {
	prettyPageLine(w, r.Page)
	if r.Excerpt != "" {
		fmt.Fprintf(w, "  %s\n", r.Excerpt)
	}
}

// renderBody runs page markdown through glamour; plain text falls through
// unchanged when rendering fails (no terminal, odd TERM).
func renderBody(md string) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// printWarnings surfaces section-schema warnings on stderr so they never
// pollute JSON output on stdout.
func printWarnings(w io.Writer, warnings []string) {
	for _, msg := range warnings {
		warnTint.Fprintf(w, "warning: %s\n", msg)
	}
}
