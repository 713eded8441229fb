package cli

import (
	"github.com/spf13/cobra"

	"github.com/planlens/PlanLens-Compare/internal/application/changeset"
	"github.com/planlens/PlanLens-Compare/pkg/errors"
	"github.com/planlens/PlanLens-Compare/pkg/types/change"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
)

// NewChangesCmd creates the change-log command group.
func NewChangesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "changes",
		Short: "List and work the change log of a comparison",
	}

	cmd.AddCommand(
		newChangesListCmd(),
		newChangesUpdateCmd(),
		newChangesCreateCmd(),
	)
	return cmd
}

// filterFlags binds the shared change-filter flags.
type filterFlags struct {
	statuses    []string
	trades      []string
	disciplines []string
	costMin     float64
	costMax     float64
	cmd         *cobra.Command
}

func newFilterFlags() *filterFlags {
	return &filterFlags{}
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, "filter by review status (open, in_review, pricing, closed)")
	cmd.Flags().StringSliceVar(&f.trades, "trade", nil, "filter by trade")
	cmd.Flags().StringSliceVar(&f.disciplines, "discipline", nil, "filter by discipline")
	cmd.Flags().Float64Var(&f.costMin, "cost-min", 0, "minimum parsed cost estimate")
	cmd.Flags().Float64Var(&f.costMax, "cost-max", 0, "maximum parsed cost estimate")
	f.cmd = cmd
}

func (f *filterFlags) build() (changeset.Filter, error) {
	var filter changeset.Filter
	for _, s := range f.statuses {
		filter.Statuses = append(filter.Statuses, change.Status(s))
	}
	filter.Trades = f.trades
	filter.Disciplines = f.disciplines

	flags := f.cmd.Flags()
	if flags.Changed("cost-min") {
		v := f.costMin
		filter.CostMin = &v
	}
	if flags.Changed("cost-max") {
		v := f.costMax
		filter.CostMax = &v
	}
	return filter, nil
}

// changeTable renders a positioned change list as an aligned table.
type changeTable []changeset.Positioned

func (t changeTable) TableHeaders() []string {
	return []string{"ID", "KIND", "TITLE", "TRADE", "STATUS", "COST", "GRID"}
}

func (t changeTable) TableRows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, c := range t {
		rows = append(rows, []string{
			string(c.ID),
			string(c.Kind),
			c.Title,
			c.Trade,
			string(c.Status),
			c.CostEstimate,
			c.GridRef,
		})
	}
	return rows
}

func newChangesListCmd() *cobra.Command {
	filterFlags := newFilterFlags()

	cmd := &cobra.Command{
		Use:   "list <comparison-id>",
		Short: "List the change snapshot of a comparison",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			filter, err := filterFlags.build()
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			changes, err := cliCtx.Deps.Changes.List(ctx, common.ID(args[0]), filter)
			if err != nil {
				return err
			}
			return PrintResult(cmd, changeTable(changes))
		},
	}

	filterFlags.register(cmd)
	return cmd
}

func newChangesUpdateCmd() *cobra.Command {
	var status, assignee, cost, title string

	cmd := &cobra.Command{
		Use:   "update <comparison-id> <change-id>",
		Short: "Update a change record (status, assignee, cost, title)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			var upd change.Update
			flags := cmd.Flags()
			if flags.Changed("status") {
				s := change.Status(status)
				upd.Status = &s
			}
			if flags.Changed("assignee") {
				a := common.UserID(assignee)
				upd.Assignee = &a
			}
			if flags.Changed("cost") {
				upd.CostEstimate = &cost
			}
			if flags.Changed("title") {
				upd.Title = &title
			}
			if upd.Status == nil && upd.Assignee == nil && upd.CostEstimate == nil && upd.Title == nil {
				return errors.InvalidParam("nothing to update; pass at least one of --status, --assignee, --cost, --title")
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			rec, err := cliCtx.Deps.Changes.Update(ctx, common.ID(args[0]), common.ID(args[1]), upd)
			if err != nil {
				return err
			}
			return PrintResult(cmd, rec)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "new review status")
	cmd.Flags().StringVar(&assignee, "assignee", "", "new assignee")
	cmd.Flags().StringVar(&cost, "cost", "", "new cost estimate string")
	cmd.Flags().StringVar(&title, "title", "", "new title")
	return cmd
}

func newChangesCreateCmd() *cobra.Command {
	var kind, title, description, trade, discipline, cost string

	cmd := &cobra.Command{
		Use:   "create <comparison-id>",
		Short: "Manually log a change against a comparison",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			rec, err := cliCtx.Deps.Changes.Create(ctx, change.CreateRequest{
				ComparisonID: common.ID(args[0]),
				Kind:         change.Kind(kind),
				Title:        title,
				Description:  description,
				Trade:        trade,
				Discipline:   discipline,
				CostEstimate: cost,
			})
			if err != nil {
				return err
			}
			PrintSuccess(cmd, "change logged as "+string(rec.ID))
			return PrintResult(cmd, rec)
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "modified", "change kind (added, removed, modified)")
	cmd.Flags().StringVar(&title, "title", "", "short change title")
	cmd.Flags().StringVar(&description, "description", "", "longer description")
	cmd.Flags().StringVar(&trade, "trade", "", "trade")
	cmd.Flags().StringVar(&discipline, "discipline", "", "discipline")
	cmd.Flags().StringVar(&cost, "cost", "", `cost estimate string (e.g. "$15,000 - $20,000")`)
	cmd.MarkFlagRequired("title")
	return cmd
}
