package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/planlens/PlanLens-Compare/pkg/errors"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
	"github.com/planlens/PlanLens-Compare/pkg/types/comparison"
)

// NewCompareCmd creates the comparison lifecycle command group.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Submit, track, and analyze drawing comparisons",
	}

	cmd.AddCommand(
		newCompareSubmitCmd(),
		newCompareGenerateCmd(),
		newCompareGetCmd(),
		newCompareAnalyzeCmd(),
	)
	return cmd
}

func newCompareSubmitCmd() *cobra.Command {
	var source, target string

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a comparison job and return its handle immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			resp, err := cliCtx.Deps.Comparisons.Submit(ctx, comparison.SubmitRequest{
				SourceBlockRef: source,
				TargetBlockRef: target,
			})
			if err != nil {
				return err
			}
			return PrintResult(cmd, resp)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "source drawing block reference")
	cmd.Flags().StringVar(&target, "target", "", "target drawing block reference")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("target")
	return cmd
}

func newCompareGenerateCmd() *cobra.Command {
	var source, target string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Submit a comparison and wait for the rendered overlay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			cmp, err := cliCtx.Deps.Comparisons.Generate(ctx, comparison.SubmitRequest{
				SourceBlockRef: source,
				TargetBlockRef: target,
			})
			if err != nil {
				return err
			}
			return PrintResult(cmd, cmp)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "source drawing block reference")
	cmd.Flags().StringVar(&target, "target", "", "target drawing block reference")
	cmd.MarkFlagRequired("source")
	cmd.MarkFlagRequired("target")
	return cmd
}

func newCompareGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <comparison-id>",
		Short: "Fetch a comparison and its overlay artifact reference",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			cmp, err := cliCtx.Deps.Comparisons.Get(ctx, common.ID(args[0]))
			if err != nil {
				return err
			}
			return PrintResult(cmd, cmp)
		},
	}
}

func newCompareAnalyzeCmd() *cobra.Command {
	filterFlags := newFilterFlags()

	cmd := &cobra.Command{
		Use:   "analyze <comparison-id>",
		Short: "Run AI change detection on a completed comparison",
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

			changes, err := cliCtx.Deps.Comparisons.Analyze(ctx, common.ID(args[0]), filter)
			if err != nil {
				return err
			}
			return PrintResult(cmd, changeTable(changes))
		},
	}

	filterFlags.register(cmd)
	return cmd
}

// NewIngestCmd creates the drawing-ingestion command.
func NewIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <drawing-ref>",
		Short: "Run sheet extraction for an uploaded drawing and wait for it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}
			if args[0] == "" {
				return errors.InvalidParam("drawing reference is required")
			}
			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			result, err := cliCtx.Deps.Comparisons.Ingest(ctx, args[0])
			if err != nil {
				return err
			}
			PrintSuccess(cmd, fmt.Sprintf("ingestion finished after %d polls", result.Attempts))
			return PrintResult(cmd, result)
		},
	}
}
