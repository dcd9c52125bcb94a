package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corebank/ledger/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Conservation gathers the system-wide sums for the money-conservation
// check. Deposits include interest and refunds, withdrawals include
// payments; fees are counted once from completed debits.
func (r *LedgerRepository) Conservation(ctx context.Context) (*usecase.ConservationReport, error) {
	var balance, fees, deposited, withdrawn pgtype.Numeric

	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COALESCE(SUM(balance), 0) FROM accounts),
			(SELECT COALESCE(SUM(fee_total), 0) FROM transactions
				WHERE status = 'completed'),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions
				WHERE status = 'completed'
				AND type IN ('deposit', 'interest', 'refund')
				AND from_account_id IS NULL),
			(SELECT COALESCE(SUM(amount), 0) FROM transactions
				WHERE status = 'completed'
				AND type IN ('withdrawal', 'payment', 'fee')
				AND to_account_id IS NULL)`).
		Scan(&balance, &fees, &deposited, &withdrawn)
	if err != nil {
		return nil, err
	}

	return &usecase.ConservationReport{
		TotalBalance:   numericToDecimal(balance),
		TotalFees:      numericToDecimal(fees),
		TotalDeposited: numericToDecimal(deposited),
		TotalWithdrawn: numericToDecimal(withdrawn),
	}, nil
}
