package bank

import (
	"context"
	"errors"
	"fmt"
	"log"

	"horizon/internal/infrastructure/dwolla"
	"horizon/internal/infrastructure/plaid"
)

// Encryptor protects secrets persisted by the service. Implemented by the
// AES-GCM encryptor in the infrastructure layer.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Service contains the business logic for linking, reconnecting, and
// removing bank connections.
type Service struct {
	repo      Repository
	gateway   plaid.ClientInterface
	payments  dwolla.ClientInterface
	encryptor Encryptor
}

// NewService creates a new bank service
func NewService(repo Repository, gateway plaid.ClientInterface, payments dwolla.ClientInterface, encryptor Encryptor) *Service {
	return &Service{
		repo:      repo,
		gateway:   gateway,
		payments:  payments,
		encryptor: encryptor,
	}
}

// ExchangeParams identifies the user completing a Link flow.
type ExchangeParams struct {
	UserID            string
	UserName          string
	DwollaCustomerURL string
}

// CreateLinkToken creates a token for the client-side Link flow.
func (s *Service) CreateLinkToken(ctx context.Context, userID, userName string) (string, error) {
	resp, err := s.gateway.CreateLinkToken(ctx, userID, userName)
	if err != nil {
		return "", fmt.Errorf("failed to create link token: %w", err)
	}
	return resp.LinkToken, nil
}

// CreateUpdateLinkToken creates a Link token in update mode so the user can
// reauthorize an existing connection.
func (s *Service) CreateUpdateLinkToken(ctx context.Context, bankID, userID string) (string, error) {
	linked, err := s.repo.GetByID(ctx, bankID)
	if err != nil {
		return "", err
	}
	if linked.UserID != userID {
		return "", ErrForbidden
	}

	resp, err := s.gateway.CreateUpdateLinkToken(ctx, linked.AccessToken, userID)
	if err != nil {
		return "", fmt.Errorf("failed to create update link token: %w", err)
	}
	return resp.LinkToken, nil
}

// ExchangePublicToken completes a Link flow: it exchanges the public token
// for a durable access token, registers the account as a funding source with
// the payments gateway, and persists the new LinkedBank.
func (s *Service) ExchangePublicToken(ctx context.Context, publicToken string, params ExchangeParams) (*LinkedBank, error) {
	exchange, err := s.gateway.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange public token: %w", err)
	}

	accounts, err := s.gateway.GetAccounts(ctx, exchange.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch accounts for new link: %w", err)
	}
	if len(accounts.Accounts) == 0 {
		return nil, errors.New("new bank link returned no accounts")
	}
	account := accounts.Accounts[0]

	processor, err := s.gateway.CreateProcessorToken(ctx, exchange.AccessToken, account.AccountID, "dwolla")
	if err != nil {
		return nil, fmt.Errorf("failed to create processor token: %w", err)
	}

	fundingSourceURL, err := s.payments.AddFundingSource(ctx, params.DwollaCustomerURL, processor.ProcessorToken, account.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create funding source: %w", err)
	}

	shareableID, err := s.encryptor.Encrypt(account.AccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to derive shareable id: %w", err)
	}

	linked, err := s.repo.Create(ctx, CreateParams{
		UserID:           params.UserID,
		ItemID:           exchange.ItemID,
		AccountID:        account.AccountID,
		AccessToken:      exchange.AccessToken,
		FundingSourceURL: fundingSourceURL,
		ShareableID:      shareableID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to persist bank link: %w", err)
	}

	log.Printf("Linked bank %s for user %s", linked.ID, params.UserID)
	return linked, nil
}

// Reconnect completes an update-mode Link flow. The fresh access token is
// written in place under the same LinkedBank identity; funding source and
// shareable id are unchanged. Last write wins.
func (s *Service) Reconnect(ctx context.Context, bankID, userID, publicToken string) error {
	linked, err := s.repo.GetByID(ctx, bankID)
	if err != nil {
		return err
	}
	if linked.UserID != userID {
		return ErrForbidden
	}

	exchange, err := s.gateway.ExchangePublicToken(ctx, publicToken)
	if err != nil {
		return fmt.Errorf("failed to exchange public token on reconnect: %w", err)
	}

	if err := s.repo.UpdateAccessToken(ctx, bankID, exchange.AccessToken); err != nil {
		return fmt.Errorf("failed to update access token: %w", err)
	}

	log.Printf("Reconnected bank %s for user %s", bankID, userID)
	return nil
}

// Remove deletes a bank connection after verifying ownership.
func (s *Service) Remove(ctx context.Context, bankID, userID string) error {
	linked, err := s.repo.GetByID(ctx, bankID)
	if err != nil {
		return err
	}
	if linked.UserID != userID {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, bankID)
}

// ResolveShareableID resolves a shareable id back to the bank it identifies.
// Used by the transfer flow to find the recipient's funding source.
func (s *Service) ResolveShareableID(ctx context.Context, shareableID string) (*LinkedBank, error) {
	accountID, err := s.encryptor.Decrypt(shareableID)
	if err != nil {
		return nil, fmt.Errorf("invalid shareable id: %w", err)
	}
	return s.repo.GetByAccountID(ctx, accountID)
}
