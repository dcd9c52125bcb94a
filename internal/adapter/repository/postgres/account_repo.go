package postgres

import (
	"context"
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

const accountColumns = `id, account_number, user_id, type, title, currency, balance, status,
	daily_limit, monthly_limit, minimum_balance, interest_rate, version, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		account.ID,
		account.AccountNumber,
		account.UserID,
		string(account.Type),
		account.Title,
		account.Currency,
		decimalToNumeric(account.Balance),
		string(account.Status),
		decimalToNumeric(account.DailyLimit),
		decimalToNumeric(account.MonthlyLimit),
		decimalToNumeric(account.MinimumBalance),
		decimalToNumeric(account.InterestRate),
		account.Version,
		timeToPgTimestamptz(account.CreatedAt),
		timeToPgTimestamptz(account.UpdatedAt),
	)

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = $1`, id)

	return scanAccount(row)
}

// GetByAccountNumber retrieves an account by its account number.
func (r *AccountRepository) GetByAccountNumber(ctx context.Context, number string) (*domain.Account, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE account_number = $1`, number)

	return scanAccount(row)
}

// GetByIDsForUpdate retrieves accounts with FOR UPDATE locks, always in
// ascending ID order so concurrent transfers lock in the same order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	rows, err := runner(r.pool, tx).Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

// ApplyDelta moves an account balance by delta. Debits are refused in the
// database when they would breach the minimum balance floor, so a recheck
// race can never overdraw.
func (r *AccountRepository) ApplyDelta(ctx context.Context, tx usecase.Transaction, id string, delta decimal.Decimal, updatedAt time.Time) error {
	tag, err := runner(r.pool, tx).Exec(ctx, `
		UPDATE accounts
		SET balance = balance + $2,
			version = version + 1,
			updated_at = $3
		WHERE id = $1
			AND status = 'active'
			AND ($2::numeric >= 0 OR balance + $2 >= minimum_balance)`,
		id, decimalToNumeric(delta), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: balance update rejected for account %s", domain.ErrCommitFailed, id)
	}

	return nil
}

// UpdateStatus updates an account's lifecycle status.
func (r *AccountRepository) UpdateStatus(ctx context.Context, id string, status domain.AccountStatus, updatedAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET status = $2, updated_at = $3
		WHERE id = $1`,
		id, string(status), timeToPgTimestamptz(updatedAt))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// List retrieves accounts ordered by creation time.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []*domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, rows.Err()
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account       domain.Account
		accType       string
		status        string
		balance       pgtype.Numeric
		dailyLimit    pgtype.Numeric
		monthlyLimit  pgtype.Numeric
		minBalance    pgtype.Numeric
		interestRate  pgtype.Numeric
		createdAt     pgtype.Timestamptz
		updatedAt     pgtype.Timestamptz
	)

	err := row.Scan(
		&account.ID,
		&account.AccountNumber,
		&account.UserID,
		&accType,
		&account.Title,
		&account.Currency,
		&balance,
		&status,
		&dailyLimit,
		&monthlyLimit,
		&minBalance,
		&interestRate,
		&account.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}

	account.Type = domain.AccountType(accType)
	account.Status = domain.AccountStatus(status)
	account.Balance = numericToDecimal(balance)
	account.DailyLimit = numericToDecimal(dailyLimit)
	account.MonthlyLimit = numericToDecimal(monthlyLimit)
	account.MinimumBalance = numericToDecimal(minBalance)
	account.InterestRate = numericToDecimal(interestRate)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	return &account, nil
}
