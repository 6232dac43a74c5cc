package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	appdb "github.com/mlgrn/courtbook/internal/db"
)

const reconcileTimeout = 30 * time.Second

// RegisterReconciliationJob schedules a job that checks every wallet balance
// against its ledger history. Any drift means a balance write happened
// outside a booking batch, or a batch committed partially; both deserve a
// loud log line.
func RegisterReconciliationJob(database *appdb.DB, cronExpr string) error {
	svc, err := Instance()
	if err != nil {
		return err
	}

	_, err = svc.AddJob("wallet-ledger-reconciliation", cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reconcileTimeout)
		defer cancel()
		ReconcileWallets(ctx, database)
	})
	return err
}

// ReconcileWallets compares each wallet's balance to the balance implied by
// its ledger history and logs any mismatch.
func ReconcileWallets(ctx context.Context, database *appdb.DB) {
	totals, err := database.Queries.ListWalletLedgerTotals(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Wallet reconciliation failed to load ledger totals")
		return
	}

	drifted := 0
	for _, total := range totals {
		drift := WalletDrift(total.OpeningBalanceCents, total.BalanceCents, total.LedgerTotalCents)
		if drift == 0 {
			continue
		}
		drifted++
		log.Warn().
			Int64("wallet_id", total.WalletID).
			Int64("member_id", total.MemberID).
			Int64("balance_cents", total.BalanceCents).
			Int64("ledger_total_cents", total.LedgerTotalCents).
			Int64("drift_cents", drift).
			Msg("Wallet balance does not match ledger history")
	}

	log.Info().
		Int("wallets", len(totals)).
		Int("drifted", drifted).
		Msg("Wallet reconciliation completed")
}

// WalletDrift returns the difference between the stored balance and the
// balance implied by the wallet's opening balance minus its ledger charges.
// Zero means the wallet and ledger agree.
func WalletDrift(openingCents, balanceCents, ledgerTotalCents int64) int64 {
	return openingCents - ledgerTotalCents - balanceCents
}
