package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"horizon/internal/domain/transaction"
)

const transferColumns = `id, name, amount, channel, category, sender_id, receiver_id,
		sender_bank_id, receiver_bank_id, email, created_at`

type TransferRepository struct {
	db *DB
}

func NewTransferRepository(db *DB) *TransferRepository {
	return &TransferRepository{db: db}
}

func (r *TransferRepository) Create(ctx context.Context, params transaction.CreateTransferParams) (*transaction.TransferRecord, error) {
	query := `
		INSERT INTO transfers (id, name, amount, channel, category, sender_id, receiver_id,
			sender_bank_id, receiver_bank_id, email)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + transferColumns

	var t transaction.TransferRecord
	err := r.db.QueryRowContext(ctx, query,
		uuid.NewString(), params.Name, params.Amount, params.Channel, params.Category,
		params.SenderID, params.ReceiverID, params.SenderBankID, params.ReceiverBankID, params.Email,
	).Scan(
		&t.ID, &t.Name, &t.Amount, &t.Channel, &t.Category, &t.SenderID, &t.ReceiverID,
		&t.SenderBankID, &t.ReceiverBankID, &t.Email, &t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer record: %w", err)
	}

	return &t, nil
}

func (r *TransferRepository) ListByBankID(ctx context.Context, bankID string) ([]*transaction.TransferRecord, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE sender_bank_id = $1 OR receiver_bank_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, bankID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers for bank: %w", err)
	}
	return collectTransfers(rows)
}

func (r *TransferRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*transaction.TransferRecord, error) {
	query := `
		SELECT ` + transferColumns + `
		FROM transfers
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list transfers for user: %w", err)
	}
	return collectTransfers(rows)
}

func collectTransfers(rows *sql.Rows) ([]*transaction.TransferRecord, error) {
	defer rows.Close()

	transfers := []*transaction.TransferRecord{}
	for rows.Next() {
		var t transaction.TransferRecord
		err := rows.Scan(
			&t.ID, &t.Name, &t.Amount, &t.Channel, &t.Category, &t.SenderID, &t.ReceiverID,
			&t.SenderBankID, &t.ReceiverBankID, &t.Email, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer record: %w", err)
		}
		transfers = append(transfers, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transfer records: %w", err)
	}

	return transfers, nil
}
