package main

import (
	"github.com/spf13/cobra"
)

func newChangeSetCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "changeset", Aliases: []string{"cs"}, Short: "Changeset ledger"}

	var author, reason string
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Open a changeset for later writes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.client()
			if err != nil {
				return err
			}
			cs, err := c.CreateChangeSet(cmd.Context(), author, reason)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), cs)
		},
	}
	createCmd.Flags().StringVar(&author, "author", "", "Author (defaults to System)")
	createCmd.Flags().StringVar(&reason, "reason", "", "Reason")
	cmd.AddCommand(createCmd)

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Recent changesets with change counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.client()
			if err != nil {
				return err
			}
			list, err := c.ListChangeSets(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), list)
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum entries (server default when 0)")
	cmd.AddCommand(listCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "show CHANGESET_ID",
		Short: "A changeset and the versions it archived",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "CHANGESET_ID")
			if err != nil {
				return err
			}
			c, err := f.client()
			if err != nil {
				return err
			}
			details, err := c.GetChangeSet(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), details)
		},
	})

	return cmd
}
