package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loganshamberger/whatidid/internal/model"
	"github.com/loganshamberger/whatidid/internal/store"
)

func newPageCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Manage pages",
	}
	cmd.AddCommand(newPageCreateCmd(app))
	cmd.AddCommand(newPageGetCmd(app))
	cmd.AddCommand(newPageUpdateCmd(app))
	cmd.AddCommand(newPageAppendCmd(app))
	cmd.AddCommand(newPageListCmd(app))
	cmd.AddCommand(newPageDeleteCmd(app))
	cmd.AddCommand(newPageSchemaCmd(app))
	return cmd
}

// readBody resolves page content from --body or --stdin.
func readBody(cmd *cobra.Command, body string, fromStdin bool) (string, error) {
	if fromStdin {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
	return body, nil
}

func parseSections(raw string) (map[string]string, error) {
	if raw == "" {
		return nil, nil
	}
	var sections map[string]string
	if err := json.Unmarshal([]byte(raw), &sections); err != nil {
		return nil, fmt.Errorf("--sections must be a JSON object of strings: %w", err)
	}
	return sections, nil
}

func splitLabels(raw string) []string {
	if raw == "" {
		return nil
	}
	var labels []string
	for _, l := range strings.Split(raw, ",") {
		if l = strings.TrimSpace(l); l != "" {
			labels = append(labels, l)
		}
	}
	return labels
}

func newPageCreateCmd(app *App) *cobra.Command {
	var (
		spaceSlug string
		parentID  string
		title     string
		pageType  string
		body      string
		fromStdin bool
		sections  string
		labels    string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a page (version 1)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pt, ok := model.ParsePageType(pageType)
			if !ok {
				return fmt.Errorf("unknown page type %q (valid: %s)", pageType, strings.Join(model.PageTypeNames(), ", "))
			}
			content, err := readBody(cmd, body, fromStdin)
			if err != nil {
				return err
			}
			secs, err := parseSections(sections)
			if err != nil {
				return err
			}

			st, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			sp, err := st.GetSpaceBySlug(cmd.Context(), spaceSlug)
			if err != nil {
				return err
			}

			params := store.CreatePageParams{
				SpaceID:  sp.ID,
				Title:    title,
				Type:     pt,
				Content:  content,
				Sections: secs,
				Labels:   splitLabels(labels),
				Identity: app.identity(),
			}
			if parentID != "" {
				params.ParentID = &parentID
			}

			page, err := st.CreatePage(cmd.Context(), params)
			if err != nil {
				return err
			}
			printWarnings(cmd.ErrOrStderr(), model.SectionWarnings(secs, pt))
			app.log.Info().Str("page", page.ID).Str("title", page.Title).Msg("page created")
			return app.emit(cmd.OutOrStdout(), page)
		},
	}
	cmd.Flags().StringVar(&spaceSlug, "space", "", "Space slug (required)")
	cmd.Flags().StringVar(&parentID, "parent", "", "Parent page id")
	cmd.Flags().StringVar(&title, "title", "", "Page title (required)")
	cmd.Flags().StringVar(&pageType, "type", "reference", "Page type: "+strings.Join(model.PageTypeNames(), "|"))
	cmd.Flags().StringVar(&body, "body", "", "Page content")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read content from stdin")
	cmd.Flags().StringVar(&sections, "sections", "", "Structured sections as a JSON object")
	cmd.Flags().StringVar(&labels, "labels", "", "Comma-separated labels")
	_ = cmd.MarkFlagRequired("space")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newPageGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <page-id>",
		Short: "Show one page with its labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			page, err := st.GetPage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.emit(cmd.OutOrStdout(), page)
		},
	}
}

func newPageUpdateCmd(app *App) *cobra.Command {
	var (
		title           string
		body            string
		fromStdin       bool
		sections        string
		expectedVersion int64
	)
	cmd := &cobra.Command{
		Use:   "update <page-id>",
		Short: "Update a page (bumps the version by one)",
		Long: strings.TrimSpace(`
Update a page's title, content, or sections. With --expect-version the
update only applies if the page is still at that version; otherwise it
fails with a conflict, which is how concurrent writers detect each other.
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			var params store.UpdatePageParams
			if cmd.Flags().Changed("title") {
				params.Title = &title
			}
			if fromStdin || cmd.Flags().Changed("body") {
				content, err := readBody(cmd, body, fromStdin)
				if err != nil {
					return err
				}
				params.Content = &content
			}
			if cmd.Flags().Changed("sections") {
				secs, err := parseSections(sections)
				if err != nil {
					return err
				}
				params.Sections = secs
			}
			if cmd.Flags().Changed("expect-version") {
				params.ExpectedVersion = &expectedVersion
			}

			page, err := st.UpdatePage(cmd.Context(), args[0], params)
			if err != nil {
				return err
			}
			if params.Sections != nil {
				printWarnings(cmd.ErrOrStderr(), model.SectionWarnings(params.Sections, page.Type))
			}
			app.log.Info().Str("page", page.ID).Int64("version", page.Version).Msg("page updated")
			return app.emit(cmd.OutOrStdout(), page)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&body, "body", "", "New content")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read new content from stdin")
	cmd.Flags().StringVar(&sections, "sections", "", "New sections as a JSON object (re-derives content)")
	cmd.Flags().Int64Var(&expectedVersion, "expect-version", 0, "Only update if the page is still at this version")
	return cmd
}

func newPageAppendCmd(app *App) *cobra.Command {
	var (
		body      string
		fromStdin bool
	)
	cmd := &cobra.Command{
		Use:   "append <page-id>",
		Short: "Append text to a page atomically",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readBody(cmd, body, fromStdin)
			if err != nil {
				return err
			}

			st, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			page, err := st.AppendPage(cmd.Context(), args[0], text)
			if err != nil {
				return err
			}
			app.log.Info().Str("page", page.ID).Int64("version", page.Version).Msg("page appended")
			return app.emit(cmd.OutOrStdout(), page)
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "Text to append")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "Read text from stdin")
	return cmd
}

func newPageListCmd(app *App) *cobra.Command {
	var (
		spaceSlug string
		pageType  string
		label     string
		user      string
		agent     string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pages with optional filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			filter := store.ListPagesFilter{
				Label: label,
				User:  user,
				Agent: agent,
			}
			if pageType != "" {
				pt, ok := model.ParsePageType(pageType)
				if !ok {
					return fmt.Errorf("unknown page type %q (valid: %s)", pageType, strings.Join(model.PageTypeNames(), ", "))
				}
				filter.Type = pt
			}
			if spaceSlug != "" {
				sp, err := st.GetSpaceBySlug(cmd.Context(), spaceSlug)
				if err != nil {
					return err
				}
				filter.SpaceID = sp.ID
			}

			pages, err := st.ListPages(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return app.emit(cmd.OutOrStdout(), pages)
		},
	}
	cmd.Flags().StringVar(&spaceSlug, "space", "", "Filter by space slug")
	cmd.Flags().StringVar(&pageType, "type", "", "Filter by page type")
	cmd.Flags().StringVar(&label, "label", "", "Filter by label")
	cmd.Flags().StringVar(&user, "user", "", "Filter by creating user")
	cmd.Flags().StringVar(&agent, "agent", "", "Filter by creating agent")
	return cmd
}

func newPageDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <page-id>",
		Short: "Delete a page (labels and links go with it)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeletePage(cmd.Context(), args[0]); err != nil {
				return err
			}
			app.log.Info().Str("page", args[0]).Msg("page deleted")
			return app.emit(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
		},
	}
}

func newPageSchemaCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <page-type>",
		Short: "Show the section schema for a page type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pt, ok := model.ParsePageType(args[0])
			if !ok {
				return fmt.Errorf("unknown page type %q (valid: %s)", args[0], strings.Join(model.PageTypeNames(), ", "))
			}
			schema := pt.SectionSchema()
			if schema == nil {
				return app.emit(cmd.OutOrStdout(), map[string]any{
					"type":     pt,
					"freeform": true,
				})
			}
			return app.emit(cmd.OutOrStdout(), map[string]any{
				"type":     pt,
				"sections": schema,
			})
		},
	}
}
