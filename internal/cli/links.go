package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/loganshamberger/whatidid/internal/model"
)

func newLinkCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Manage typed links between pages",
	}
	cmd.AddCommand(newLinkCreateCmd(app))
	cmd.AddCommand(newLinkListCmd(app))
	cmd.AddCommand(newLinkDeleteCmd(app))
	return cmd
}

func newLinkCreateCmd(app *App) *cobra.Command {
	var relation string
	cmd := &cobra.Command{
		Use:   "create <source-page-id> <target-page-id>",
		Short: "Link two pages (one link per direction)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rel, ok := model.ParseLinkRelation(relation)
			if !ok {
				return fmt.Errorf("unknown relation %q (valid: %s)", relation, strings.Join(model.LinkRelationNames(), ", "))
			}

			st, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			link, err := st.CreateLink(cmd.Context(), args[0], args[1], rel)
			if err != nil {
				return err
			}
			app.log.Info().Str("source", link.SourceID).Str("target", link.TargetID).Msg("link created")
			return app.emit(cmd.OutOrStdout(), link)
		},
	}
	cmd.Flags().StringVar(&relation, "relation", string(model.RelationRelatesTo), "Relation: "+strings.Join(model.LinkRelationNames(), "|"))
	return cmd
}

func newLinkListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list <page-id>",
		Short: "List links touching a page, both directions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			links, err := st.ListLinks(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.emit(cmd.OutOrStdout(), links)
		},
	}
}

func newLinkDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <source-page-id> <target-page-id>",
		Short: "Delete the link between two pages",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteLink(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			return app.emit(cmd.OutOrStdout(), map[string]string{
				"deleted": args[0] + " -> " + args[1],
			})
		},
	}
}
