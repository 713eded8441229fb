package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/planlens/PlanLens-Compare/pkg/errors"
	"github.com/planlens/PlanLens-Compare/pkg/types/common"
	"github.com/planlens/PlanLens-Compare/pkg/types/comparison"
)

// NewAlignCmd creates the manual realignment command.
//
// Each --pair flag carries one correspondence as "sx,sy:tx,ty" in the
// [0,1000] normalized point space; exactly three are required.
func NewAlignCmd() *cobra.Command {
	var pairSpecs []string

	cmd := &cobra.Command{
		Use:   "align <comparison-id>",
		Short: "Re-register a comparison from three picked point pairs",
		Long: "align estimates a similarity transform (scale, rotation, translation)\n" +
			"from three source/target correspondences, submits the picks to the\n" +
			"comparison service for confirmation, and prints both the local preview\n" +
			"and the confirmed transform.",
		Example: `  planlens align cmp_01H --pair 100,100:110,100 --pair 900,100:910,102 --pair 500,900:508,898`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cliCtx, err := GetCLIContext(cmd)
			if err != nil {
				return err
			}

			pairs, err := parsePointPairs(pairSpecs)
			if err != nil {
				return err
			}

			ctx, cancel := commandContext(cmd, cliCtx)
			defer cancel()

			result, err := cliCtx.Deps.Comparisons.Realign(ctx, common.ID(args[0]), pairs)
			if err != nil {
				return err
			}

			if result.Preview != nil && result.Preview.LowConfidence {
				fmt.Fprintln(cmd.ErrOrStderr(),
					"Warning: high registration residual; check the picked points")
			}
			return PrintResult(cmd, result)
		},
	}

	cmd.Flags().StringArrayVar(&pairSpecs, "pair", nil,
		`point correspondence "sx,sy:tx,ty" (repeat exactly three times)`)
	cmd.MarkFlagRequired("pair")
	return cmd
}

// parsePointPairs converts "sx,sy:tx,ty" specs into indexed point pairs.
func parsePointPairs(specs []string) ([]comparison.PointPair, error) {
	pairs := make([]comparison.PointPair, 0, len(specs))
	for i, spec := range specs {
		halves := strings.Split(spec, ":")
		if len(halves) != 2 {
			return nil, errors.InvalidParam(
				fmt.Sprintf("pair %d: expected \"sx,sy:tx,ty\", got %q", i+1, spec))
		}
		src, err := parsePoint(halves[0])
		if err != nil {
			return nil, errors.InvalidParam(fmt.Sprintf("pair %d source: %v", i+1, err))
		}
		dst, err := parsePoint(halves[1])
		if err != nil {
			return nil, errors.InvalidParam(fmt.Sprintf("pair %d target: %v", i+1, err))
		}
		pairs = append(pairs, comparison.PointPair{Index: i + 1, Source: src, Target: dst})
	}
	return pairs, nil
}

func parsePoint(s string) (common.Point, error) {
	coords := strings.Split(s, ",")
	if len(coords) != 2 {
		return common.Point{}, fmt.Errorf("expected \"x,y\", got %q", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
	if err != nil {
		return common.Point{}, fmt.Errorf("bad x coordinate %q", coords[0])
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
	if err != nil {
		return common.Point{}, fmt.Errorf("bad y coordinate %q", coords[1])
	}
	return common.Point{X: x, Y: y}, nil
}
