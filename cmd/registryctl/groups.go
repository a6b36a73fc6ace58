package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/teshtvele/groups-management/internal/client"
)

func newGroupCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{Use: "group", Short: "Group and temporal queries"}

	var limit, offset int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List groups with member counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := f.client()
			if err != nil {
				return err
			}
			page, err := c.ListGroups(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), page)
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "l", 0, "Page size (server default when 0)")
	listCmd.Flags().IntVarP(&offset, "offset", "o", 0, "Rows to skip")
	cmd.AddCommand(listCmd)

	var histLimit int
	historyCmd := groupCmd(f, "history GROUP_ID", "Archived versions, newest first",
		func(cmd *cobra.Command, c *client.Client, id int64) (any, error) {
			return c.GroupHistory(cmd.Context(), id, histLimit)
		})
	historyCmd.Flags().IntVarP(&histLimit, "limit", "l", 0, "Maximum entries (all when 0)")
	cmd.AddCommand(historyCmd)

	cmd.AddCommand(groupCmd(f, "timeline GROUP_ID", "Every version, oldest first",
		func(cmd *cobra.Command, c *client.Client, id int64) (any, error) {
			return c.GroupTimeline(cmd.Context(), id)
		}))

	var asOf string
	asOfCmd := groupCmd(f, "as-of GROUP_ID", "Snapshot valid at --at (null when none)",
		func(cmd *cobra.Command, c *client.Client, id int64) (any, error) {
			at, err := time.Parse(time.RFC3339Nano, asOf)
			if err != nil {
				return nil, err
			}
			return c.PersonAsOf(cmd.Context(), id, at)
		})
	asOfCmd.Flags().StringVar(&asOf, "at", "", "RFC3339 timestamp (required)")
	_ = asOfCmd.MarkFlagRequired("at")
	cmd.AddCommand(asOfCmd)

	var atTime string
	atTimeCmd := groupCmd(f, "at-time GROUP_ID", "Archived version valid at --at with its interval",
		func(cmd *cobra.Command, c *client.Client, id int64) (any, error) {
			at, err := time.Parse(time.RFC3339Nano, atTime)
			if err != nil {
				return nil, err
			}
			return c.GroupAtTime(cmd.Context(), id, at)
		})
	atTimeCmd.Flags().StringVar(&atTime, "at", "", "RFC3339 timestamp (required)")
	_ = atTimeCmd.MarkFlagRequired("at")
	cmd.AddCommand(atTimeCmd)

	return cmd
}

// groupCmd builds a subcommand taking one GROUP_ID argument and printing run's result.
func groupCmd(f *rootFlags, use, short string, run func(*cobra.Command, *client.Client, int64) (any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "GROUP_ID")
			if err != nil {
				return err
			}
			c, err := f.client()
			if err != nil {
				return err
			}
			v, err := run(cmd, c, id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), v)
		},
	}
}
