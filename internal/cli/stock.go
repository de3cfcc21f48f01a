package cli

import (
	"errors"
	"fmt"

	"github.com/Erenishere/pharam-sub008/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// ErrProjectionDrift is returned by stock verify when the projection
// disagrees with the movement history
var ErrProjectionDrift = errors.New("stock projection drift detected")

func newStockCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Maintain the stock level projection",
	}

	var item string
	rebuild := &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute stock levels from the movement history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var itemID *uuid.UUID
			if item != "" {
				id, err := uuid.Parse(item)
				if err != nil {
					return fmt.Errorf("invalid --item: %w", err)
				}
				itemID = &id
			}
			app, err := rt.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())

			n, err := app.Stock.RebuildProjection(cmd.Context(), itemID)
			if err != nil {
				return err
			}
			rt.log.Info("stock projection rebuilt", zap.Int("items", n))
			return writeJSON(cmd.OutOrStdout(), map[string]int{"rebuilt": n})
		},
	}
	rebuild.Flags().StringVar(&item, "item", "", "rebuild a single item by id")

	verify := &cobra.Command{
		Use:   "verify",
		Short: "Compare the projection with the movement history",
		Long:  "Prints every drifting item and exits non-zero when any is found.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := rt.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())

			drifts, err := app.Stock.VerifyProjection(cmd.Context())
			if err != nil {
				return err
			}
			if drifts == nil {
				drifts = []inventory.ProjectionDrift{}
			}
			if err := writeJSON(cmd.OutOrStdout(), drifts); err != nil {
				return err
			}
			if len(drifts) > 0 {
				return fmt.Errorf("%w: %d item(s)", ErrProjectionDrift, len(drifts))
			}
			return nil
		},
	}

	cmd.AddCommand(rebuild, verify)
	return cmd
}
