package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/Erenishere/pharam-sub008/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// ErrLedgerUnbalanced is returned when a ledger check finds debits and
// credits that disagree
var ErrLedgerUnbalanced = errors.New("ledger is unbalanced")

func newLedgerCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Check the double entry ledger",
	}

	var at string
	trial := &cobra.Command{
		Use:   "trial-balance",
		Short: "Print the trial balance as of an instant",
		Example: `  erpctl ledger trial-balance
  erpctl ledger trial-balance --at 2026-03-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asOf, err := parseAt(at, time.Now())
			if err != nil {
				return err
			}
			app, err := rt.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())

			tb, err := app.Ledger.TrialBalance(cmd.Context(), asOf)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), tb); err != nil {
				return err
			}
			if !tb.Balanced() {
				return fmt.Errorf("%w: debit %s, credit %s", ErrLedgerUnbalanced,
					tb.TotalDebit.StringFixed(2), tb.TotalCredit.StringFixed(2))
			}
			return nil
		},
	}
	trial.Flags().StringVar(&at, "at", "", "YYYY-MM-DD (end of day) or RFC 3339, default now")

	var refType string
	verify := &cobra.Command{
		Use:   "verify REFERENCE_ID",
		Short: "Check that one document's entries balance",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			refID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid reference id: %w", err)
			}
			app, err := rt.app(cmd)
			if err != nil {
				return err
			}
			defer app.Close(cmd.Context())

			check, err := app.Ledger.VerifyReference(cmd.Context(), refType, refID)
			if err != nil {
				return err
			}
			if err := writeJSON(cmd.OutOrStdout(), check); err != nil {
				return err
			}
			if !check.Balanced {
				return fmt.Errorf("%w: %s %s", ErrLedgerUnbalanced, check.ReferenceType, refID)
			}
			return nil
		},
	}
	verify.Flags().StringVar(&refType, "type", finance.ReferenceTypeInvoice, "reference type (invoice, adjustment)")

	cmd.AddCommand(trial, verify)
	return cmd
}
