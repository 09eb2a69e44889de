package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loganshamberger/whatidid/internal/model"
	"github.com/loganshamberger/whatidid/internal/store"
)

func newSearchCmd(app *App) *cobra.Command {
	var (
		spaceSlug  string
		pageType   string
		label      string
		agent      string
		hasSection string
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Full-text search over titles and content",
		Long: strings.TrimSpace(`
Search page titles and content. With a query, results are ranked by
relevance and carry an excerpt around the first match. Without one, the
filters alone select pages, newest first.
`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := store.SearchParams{
				Label:      label,
				Agent:      agent,
				HasSection: hasSection,
				Limit:      limit,
			}
			if len(args) == 1 {
				params.Query = args[0]
			}
			if pageType != "" {
				pt, ok := model.ParsePageType(pageType)
				if !ok {
					return fmt.Errorf("unknown page type %q (valid: %s)", pageType, strings.Join(model.PageTypeNames(), ", "))
				}
				params.Type = pt
			}

			st, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if spaceSlug != "" {
				sp, err := st.GetSpaceBySlug(cmd.Context(), spaceSlug)
				if err != nil {
					return err
				}
				params.SpaceID = sp.ID
			}

			results, err := st.Search(cmd.Context(), params)
			if err != nil {
				return err
			}
			return app.emit(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVar(&spaceSlug, "space", "", "Filter by space slug")
	cmd.Flags().StringVar(&pageType, "type", "", "Filter by page type")
	cmd.Flags().StringVar(&label, "label", "", "Filter by label")
	cmd.Flags().StringVar(&agent, "agent", "", "Filter by creating agent")
	cmd.Flags().StringVar(&hasSection, "has-section", "", "Only pages with this section key")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum results (default 50)")
	return cmd
}
