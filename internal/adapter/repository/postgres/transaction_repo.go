package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/corebank/ledger/internal/domain"
	"github.com/corebank/ledger/internal/usecase"
)

const transactionColumns = `id, reference, type, subtype, status, channel, amount, currency, description,
	from_account_id, to_account_id,
	from_balance_before, from_balance_after, to_balance_before, to_balance_after,
	fee_transaction, fee_processing, fee_other, fee_total,
	metadata, flagged, flag_reason, created_at, processed_at`

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

// Create inserts a new ledger entry.
func (r *TransactionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	metadata, err := json.Marshal(txn.Metadata)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9,
			$10, $11,
			$12, $13, $14, $15,
			$16, $17, $18, $19,
			$20, $21, $22, $23, $24)`,
		txn.ID,
		txn.Reference,
		string(txn.Type),
		txn.Subtype,
		string(txn.Status),
		string(txn.Channel),
		decimalToNumeric(txn.Amount),
		txn.Currency,
		txn.Description,
		stringPtrToText(txn.FromAccountID),
		stringPtrToText(txn.ToAccountID),
		decimalPtrToNumeric(txn.FromBalanceBefore),
		decimalPtrToNumeric(txn.FromBalanceAfter),
		decimalPtrToNumeric(txn.ToBalanceBefore),
		decimalPtrToNumeric(txn.ToBalanceAfter),
		decimalToNumeric(txn.Fees.TransactionFee),
		decimalToNumeric(txn.Fees.ProcessingFee),
		decimalToNumeric(txn.Fees.OtherCharges),
		decimalToNumeric(txn.Fees.TotalFees),
		metadata,
		txn.Flagged,
		txn.FlagReason,
		timeToPgTimestamptz(txn.CreatedAt),
		pgtype.Timestamptz{},
	)

	return err
}

// GetByID retrieves a ledger entry by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1`, id)

	return scanTransaction(row)
}

// UpdateStatus moves an entry between lifecycle states, conditional on the
// current state so concurrent writers cannot race an entry out of a
// terminal status.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id string, from, to domain.TransactionStatus, at time.Time) error {
	processedAt := pgtype.Timestamptz{}
	if to.Terminal() {
		processedAt = timeToPgTimestamptz(at)
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE transactions
		SET status = $3, processed_at = $4
		WHERE id = $1 AND status = $2`,
		id, string(from), string(to), processedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s is not %s", domain.ErrIllegalTransition, id, from)
	}

	return nil
}

// FinalizeCompleted writes the completed entry with its balance snapshots
// inside the commit transaction. Only a processing entry can complete.
func (r *TransactionRepository) FinalizeCompleted(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	tag, err := runner(r.pool, tx).Exec(ctx, `
		UPDATE transactions
		SET status = 'completed',
			from_balance_before = $2,
			from_balance_after = $3,
			to_balance_before = $4,
			to_balance_after = $5,
			processed_at = $6
		WHERE id = $1 AND status = 'processing'`,
		txn.ID,
		decimalPtrToNumeric(txn.FromBalanceBefore),
		decimalPtrToNumeric(txn.FromBalanceAfter),
		decimalPtrToNumeric(txn.ToBalanceBefore),
		decimalPtrToNumeric(txn.ToBalanceAfter),
		timeToPgTimestamptz(*txn.ProcessedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s is not processing", domain.ErrIllegalTransition, txn.ID)
	}

	return nil
}

// MarkFailed moves a non-terminal entry to failed. Used on the error path
// after the entry has already been committed, so a broken transfer always
// leaves a failed entry behind.
func (r *TransactionRepository) MarkFailed(ctx context.Context, id string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE transactions
		SET status = 'failed', processed_at = $2
		WHERE id = $1 AND status IN ('pending', 'processing')`,
		id, timeToPgTimestamptz(at))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s already terminal", domain.ErrIllegalTransition, id)
	}

	return nil
}

// History retrieves an account's entries newest first.
func (r *TransactionRepository) History(ctx context.Context, accountID string, filter usecase.HistoryFilter) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE (from_account_id = $1 OR to_account_id = $1)`
	args := []any{accountID}

	if filter.From != nil {
		args = append(args, timeToPgTimestamptz(*filter.From))
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, timeToPgTimestamptz(*filter.To))
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	if filter.Type != nil {
		args = append(args, string(*filter.Type))
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	args = append(args, filter.Limit, filter.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

// MonthlySummary aggregates completed entries by type for one calendar
// month, UTC boundaries.
func (r *TransactionRepository) MonthlySummary(ctx context.Context, accountID string, year int, month time.Month) ([]usecase.TypeTotal, error) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	rows, err := r.pool.Query(ctx, `
		SELECT type, COUNT(*), COALESCE(SUM(amount), 0), COALESCE(SUM(fee_total), 0)
		FROM transactions
		WHERE (from_account_id = $1 OR to_account_id = $1)
			AND status = 'completed'
			AND created_at >= $2 AND created_at < $3
		GROUP BY type
		ORDER BY type`,
		accountID, timeToPgTimestamptz(start), timeToPgTimestamptz(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []usecase.TypeTotal
	for rows.Next() {
		var (
			txnType string
			count   int64
			total   pgtype.Numeric
			fees    pgtype.Numeric
		)
		if err := rows.Scan(&txnType, &count, &total, &fees); err != nil {
			return nil, err
		}
		totals = append(totals, usecase.TypeTotal{
			Type:  domain.TransactionType(txnType),
			Count: count,
			Total: numericToDecimal(total),
			Fees:  numericToDecimal(fees),
		})
	}

	return totals, rows.Err()
}

// SumDebits totals amount plus fees for the account's completed and
// processing debits in [from, to). excludeID skips the caller's own
// in-flight entry when rechecking limits under lock.
func (r *TransactionRepository) SumDebits(ctx context.Context, tx usecase.Transaction, accountID string, from, to time.Time, excludeID string) (decimal.Decimal, error) {
	var sum pgtype.Numeric
	err := runner(r.pool, tx).QueryRow(ctx, `
		SELECT COALESCE(SUM(amount + fee_total), 0)
		FROM transactions
		WHERE from_account_id = $1
			AND status IN ('completed', 'processing')
			AND created_at >= $2 AND created_at < $3
			AND ($4 = '' OR id <> $4)`,
		accountID, timeToPgTimestamptz(from), timeToPgTimestamptz(to), excludeID).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}

	return numericToDecimal(sum), nil
}

// UpdateFlag sets the administrative annotation on an entry.
func (r *TransactionRepository) UpdateFlag(ctx context.Context, id string, flagged bool, reason string, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE transactions
		SET flagged = $2, flag_reason = $3
		WHERE id = $1`,
		id, flagged, reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		txn            domain.Transaction
		txnType        string
		status         string
		channel        string
		amount         pgtype.Numeric
		fromAccount    pgtype.Text
		toAccount      pgtype.Text
		fromBefore     pgtype.Numeric
		fromAfter      pgtype.Numeric
		toBefore       pgtype.Numeric
		toAfter        pgtype.Numeric
		feeTransaction pgtype.Numeric
		feeProcessing  pgtype.Numeric
		feeOther       pgtype.Numeric
		feeTotal       pgtype.Numeric
		metadata       []byte
		createdAt      pgtype.Timestamptz
		processedAt    pgtype.Timestamptz
	)

	err := row.Scan(
		&txn.ID,
		&txn.Reference,
		&txnType,
		&txn.Subtype,
		&status,
		&channel,
		&amount,
		&txn.Currency,
		&txn.Description,
		&fromAccount,
		&toAccount,
		&fromBefore,
		&fromAfter,
		&toBefore,
		&toAfter,
		&feeTransaction,
		&feeProcessing,
		&feeOther,
		&feeTotal,
		&metadata,
		&txn.Flagged,
		&txn.FlagReason,
		&createdAt,
		&processedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	txn.Type = domain.TransactionType(txnType)
	txn.Status = domain.TransactionStatus(status)
	txn.Channel = domain.Channel(channel)
	txn.Amount = numericToDecimal(amount)
	txn.FromAccountID = textToStringPtr(fromAccount)
	txn.ToAccountID = textToStringPtr(toAccount)
	txn.FromBalanceBefore = numericToDecimalPtr(fromBefore)
	txn.FromBalanceAfter = numericToDecimalPtr(fromAfter)
	txn.ToBalanceBefore = numericToDecimalPtr(toBefore)
	txn.ToBalanceAfter = numericToDecimalPtr(toAfter)
	txn.Fees = domain.FeeBreakdown{
		TransactionFee: numericToDecimal(feeTransaction),
		ProcessingFee:  numericToDecimal(feeProcessing),
		OtherCharges:   numericToDecimal(feeOther),
		TotalFees:      numericToDecimal(feeTotal),
	}
	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &txn.Metadata)
	}
	txn.CreatedAt = createdAt.Time
	txn.ProcessedAt = pgTimestamptzToTimePtr(processedAt)

	return &txn, nil
}
