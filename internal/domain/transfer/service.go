package transfer

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"horizon/internal/domain/bank"
	"horizon/internal/domain/transaction"
	"horizon/internal/infrastructure/dwolla"
)

var transferTracer = otel.Tracer("horizon/transfer")

var validate = validator.New()

var (
	ErrInvalidAmount  = errors.New("transfer amount must be positive")
	ErrUnknownShareID = errors.New("shareable id does not resolve to a bank")
	ErrSameBank       = errors.New("sender and recipient bank are the same")
	ErrMissingFunding = errors.New("bank has no funding source")
)

// ShareableResolver resolves an opaque shareable id back to the bank it
// encodes. Implemented by bank.Service.
type ShareableResolver interface {
	ResolveShareableID(ctx context.Context, shareableID string) (*bank.LinkedBank, error)
}

// Params describes one requested peer-to-peer transfer.
type Params struct {
	SenderID     string          `validate:"required"`
	SenderBankID string          `validate:"required"`
	ShareableID  string          `validate:"required"`
	Email        string          `validate:"required,email"`
	Name         string          `validate:"required"`
	Amount       decimal.Decimal `validate:"-"`
}

// Service moves money between two linked banks through the payments gateway
// and records the completed transfer for ledger merging.
type Service struct {
	banks     bank.Repository
	resolver  ShareableResolver
	payments  dwolla.ClientInterface
	transfers transaction.TransferRepository
}

// NewService creates a new transfer service
func NewService(
	banks bank.Repository,
	resolver ShareableResolver,
	payments dwolla.ClientInterface,
	transfers transaction.TransferRepository,
) *Service {
	return &Service{
		banks:     banks,
		resolver:  resolver,
		payments:  payments,
		transfers: transfers,
	}
}

// Create executes a transfer end to end: resolve both banks, move the funds
// at the gateway, then persist the record. The record write happens only
// after the gateway accepted the transfer; a failed write is logged but does
// not undo the money movement.
func (s *Service) Create(ctx context.Context, params Params) (*transaction.TransferRecord, error) {
	ctx, span := transferTracer.Start(ctx, "transfer.Create")
	defer span.End()

	if err := validate.Struct(params); err != nil {
		return nil, fmt.Errorf("invalid transfer request: %w", err)
	}
	if !params.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	sender, err := s.banks.GetByID(ctx, params.SenderBankID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sender bank: %w", err)
	}
	if sender.UserID != params.SenderID {
		return nil, bank.ErrForbidden
	}

	recipient, err := s.resolver.ResolveShareableID(ctx, params.ShareableID)
	if err != nil {
		return nil, ErrUnknownShareID
	}
	if recipient.ID == sender.ID {
		return nil, ErrSameBank
	}
	if sender.FundingSourceURL == "" || recipient.FundingSourceURL == "" {
		return nil, ErrMissingFunding
	}

	transferURL, err := s.payments.CreateTransfer(ctx, sender.FundingSourceURL, recipient.FundingSourceURL, params.Amount)
	if err != nil {
		return nil, fmt.Errorf("payments gateway rejected transfer: %w", err)
	}

	span.SetAttributes(attribute.String("transfer.url", transferURL))

	record, err := s.transfers.Create(ctx, transaction.CreateTransferParams{
		Name:           params.Name,
		Amount:         params.Amount,
		Channel:        "online",
		Category:       "Transfer",
		SenderID:       params.SenderID,
		ReceiverID:     recipient.UserID,
		SenderBankID:   sender.ID,
		ReceiverBankID: recipient.ID,
		Email:          params.Email,
	})
	if err != nil {
		// The money already moved. Surface the record loss in logs instead of
		// failing a transfer that succeeded at the gateway.
		log.Printf("Transfer %s completed but record write failed: %v", transferURL, err)
		return nil, nil
	}

	return record, nil
}

// History returns the recorded transfers a user participated in, newest
// first, paginated.
func (s *Service) History(ctx context.Context, userID string, limit, offset int) ([]*transaction.TransferRecord, error) {
	ctx, span := transferTracer.Start(ctx, "transfer.History")
	defer span.End()

	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	records, err := s.transfers.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to load transfer history: %w", err)
	}
	return records, nil
}
