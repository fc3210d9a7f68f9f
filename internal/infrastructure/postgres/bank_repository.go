package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"horizon/internal/domain/bank"
)

// BankRepository persists bank links. Access tokens are encrypted before
// they touch the database and decrypted on every read, so the rest of the
// code only ever sees plaintext tokens in memory.
type BankRepository struct {
	db        *DB
	encryptor bank.Encryptor
}

func NewBankRepository(db *DB, encryptor bank.Encryptor) *BankRepository {
	return &BankRepository{db: db, encryptor: encryptor}
}

func (r *BankRepository) Create(ctx context.Context, params bank.CreateParams) (*bank.LinkedBank, error) {
	encrypted, err := r.encryptor.Encrypt(params.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt access token: %w", err)
	}

	query := `
		INSERT INTO bank_links (id, user_id, item_id, account_id, access_token, funding_source_url, shareable_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, user_id, item_id, account_id, funding_source_url, shareable_id
	`

	var b bank.LinkedBank
	err = r.db.QueryRowContext(ctx, query,
		uuid.NewString(), params.UserID, params.ItemID, params.AccountID,
		encrypted, params.FundingSourceURL, params.ShareableID,
	).Scan(&b.ID, &b.UserID, &b.ItemID, &b.AccountID, &b.FundingSourceURL, &b.ShareableID)
	if err != nil {
		return nil, fmt.Errorf("failed to create bank link: %w", err)
	}

	b.AccessToken = params.AccessToken
	return &b, nil
}

func (r *BankRepository) GetByID(ctx context.Context, id string) (*bank.LinkedBank, error) {
	query := `
		SELECT id, user_id, item_id, account_id, access_token, funding_source_url, shareable_id
		FROM bank_links
		WHERE id = $1
	`
	return r.scanOne(ctx, query, id)
}

func (r *BankRepository) GetByAccountID(ctx context.Context, accountID string) (*bank.LinkedBank, error) {
	query := `
		SELECT id, user_id, item_id, account_id, access_token, funding_source_url, shareable_id
		FROM bank_links
		WHERE account_id = $1
	`
	return r.scanOne(ctx, query, accountID)
}

func (r *BankRepository) ListByUserID(ctx context.Context, userID string) ([]*bank.LinkedBank, error) {
	query := `
		SELECT id, user_id, item_id, account_id, access_token, funding_source_url, shareable_id
		FROM bank_links
		WHERE user_id = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bank links: %w", err)
	}
	defer rows.Close()

	var banks []*bank.LinkedBank
	for rows.Next() {
		var b bank.LinkedBank
		var encrypted string
		if err := rows.Scan(&b.ID, &b.UserID, &b.ItemID, &b.AccountID, &encrypted, &b.FundingSourceURL, &b.ShareableID); err != nil {
			return nil, fmt.Errorf("failed to scan bank link: %w", err)
		}
		if b.AccessToken, err = r.encryptor.Decrypt(encrypted); err != nil {
			return nil, fmt.Errorf("failed to decrypt access token for bank %s: %w", b.ID, err)
		}
		banks = append(banks, &b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bank links: %w", err)
	}

	return banks, nil
}

func (r *BankRepository) UpdateAccessToken(ctx context.Context, id, accessToken string) error {
	encrypted, err := r.encryptor.Encrypt(accessToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `UPDATE bank_links SET access_token = $1 WHERE id = $2`, encrypted, id)
	if err != nil {
		return fmt.Errorf("failed to update access token: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return bank.ErrBankNotFound
	}
	return nil
}

func (r *BankRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bank_links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bank link: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return bank.ErrBankNotFound
	}
	return nil
}

func (r *BankRepository) scanOne(ctx context.Context, query string, arg any) (*bank.LinkedBank, error) {
	var b bank.LinkedBank
	var encrypted string
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&b.ID, &b.UserID, &b.ItemID, &b.AccountID, &encrypted, &b.FundingSourceURL, &b.ShareableID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bank.ErrBankNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bank link: %w", err)
	}

	if b.AccessToken, err = r.encryptor.Decrypt(encrypted); err != nil {
		return nil, fmt.Errorf("failed to decrypt access token for bank %s: %w", b.ID, err)
	}
	return &b, nil
}
