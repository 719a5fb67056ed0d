package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var filelistFlag string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what a pack run would discover, without writing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			groups, err := discoverGroups(cfg, filelistFlag, logger)
			if err != nil {
				return err
			}

			bySource := make(map[string]*planRow)
			var order []string
			for _, group := range groups {
				row, ok := bySource[group.Source]
				if !ok {
					row = &planRow{source: group.Source}
					bySource[group.Source] = row
					order = append(order, group.Source)
				}
				row.groups++
				row.members += len(group.Members)
			}

			tw := table.NewWriter()
			tw.SetStyle(table.StyleRounded)
			tw.AppendHeader(table.Row{"Source", "Groups", "Members"})
			tw.SetColumnConfigs([]table.ColumnConfig{
				{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
				{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
			})

			var totalGroups, totalMembers int
			for _, source := range order {
				row := bySource[source]
				tw.AppendRow(table.Row{row.source, row.groups, row.members})
				totalGroups += row.groups
				totalMembers += row.members
			}

			fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
			fmt.Fprintf(cmd.OutOrStdout(), "%d groups, %d members total\n", totalGroups, totalMembers)
			return nil
		},
	}

	cmd.Flags().StringVar(&filelistFlag, "filelist", "", "Manifest of path|speaker|languages|text lines; replaces configured datasets")

	return cmd
}

type planRow struct {
	source  string
	groups  int
	members int
}
