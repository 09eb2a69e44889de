package cli

import (
	"github.com/spf13/cobra"
)

func newSpaceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "space",
		Short: "Manage spaces",
	}
	cmd.AddCommand(newSpaceCreateCmd(app))
	cmd.AddCommand(newSpaceListCmd(app))
	cmd.AddCommand(newSpaceGetCmd(app))
	cmd.AddCommand(newSpaceDeleteCmd(app))
	return cmd
}

func newSpaceCreateCmd(app *App) *cobra.Command {
	var slug, name, description string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a space",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			sp, err := st.CreateSpace(cmd.Context(), slug, name, description)
			if err != nil {
				return err
			}
			app.log.Info().Str("slug", sp.Slug).Msg("space created")
			return app.emit(cmd.OutOrStdout(), sp)
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "URL-safe identifier (required)")
	cmd.Flags().StringVar(&name, "name", "", "Display name (default: the slug)")
	cmd.Flags().StringVar(&description, "description", "", "What this space holds")
	_ = cmd.MarkFlagRequired("slug")
	return cmd
}

func newSpaceListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List spaces, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			spaces, err := st.ListSpaces(cmd.Context())
			if err != nil {
				return err
			}
			return app.emit(cmd.OutOrStdout(), spaces)
		},
	}
}

func newSpaceGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <slug>",
		Short: "Show one space by slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			sp, err := st.GetSpaceBySlug(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return app.emit(cmd.OutOrStdout(), sp)
		},
	}
}

func newSpaceDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete an empty space",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := app.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			sp, err := st.GetSpaceBySlug(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := st.DeleteSpace(cmd.Context(), sp.ID); err != nil {
				return err
			}
			app.log.Info().Str("slug", sp.Slug).Msg("space deleted")
			return app.emit(cmd.OutOrStdout(), map[string]string{"deleted": sp.ID})
		},
	}
}
