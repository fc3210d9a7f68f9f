package plaid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"horizon/internal/shared/config"
)

const (
	defaultTimeout = 30 * time.Second

	linkTokenCreatePath     = "/link/token/create"
	publicTokenExchangePath = "/item/public_token/exchange"
	accountsGetPath         = "/accounts/get"
	institutionsGetByIDPath = "/institutions/get_by_id"
	transactionsSyncPath    = "/transactions/sync"
	processorTokenPath      = "/processor/token/create"
)

// Client handles communication with the Plaid API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	clientID   string
	secret     string
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a Plaid API client for the configured environment.
// Credentials come from the explicit config object, never from process-wide
// state.
func NewClient(cfg config.PlaidConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL:  cfg.BaseURL(),
		clientID: cfg.ClientID,
		secret:   cfg.Secret,
	}
}

// Balances holds the balance fields of an account snapshot.
type Balances struct {
	Available *decimal.Decimal `json:"available"`
	Current   *decimal.Decimal `json:"current"`
}

// Account is one account as returned by /accounts/get.
type Account struct {
	AccountID    string   `json:"account_id"`
	Balances     Balances `json:"balances"`
	Name         string   `json:"name"`
	OfficialName string   `json:"official_name"`
	Mask         string   `json:"mask"`
	Type         string   `json:"type"`
	Subtype      string   `json:"subtype"`
}

// Item identifies the bank connection an account belongs to.
type Item struct {
	ItemID        string `json:"item_id"`
	InstitutionID string `json:"institution_id"`
}

// AccountsResponse is the response of /accounts/get.
type AccountsResponse struct {
	Accounts  []Account `json:"accounts"`
	Item      Item      `json:"item"`
	RequestID string    `json:"request_id"`
}

// Institution is the response of /institutions/get_by_id.
type Institution struct {
	InstitutionID string `json:"institution_id"`
	Name          string `json:"name"`
}

// SyncedTransaction is one transaction in a /transactions/sync delta.
type SyncedTransaction struct {
	TransactionID  string          `json:"transaction_id"`
	Name           string          `json:"name"`
	PaymentChannel string          `json:"payment_channel"`
	AccountID      string          `json:"account_id"`
	Amount         decimal.Decimal `json:"amount"`
	Pending        bool            `json:"pending"`
	Category       []string        `json:"category"`
	Date           string          `json:"date"` // "2006-01-02"
	LogoURL        string          `json:"logo_url"`
}

// GetDate parses the transaction date.
func (t *SyncedTransaction) GetDate() (time.Time, error) {
	if t.Date == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse("2006-01-02", t.Date)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, t.Date)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse date '%s': %w", t.Date, err)
		}
	}
	return parsed, nil
}

// FirstCategory returns the leading category or "" when the list is empty.
func (t *SyncedTransaction) FirstCategory() string {
	if len(t.Category) == 0 {
		return ""
	}
	return t.Category[0]
}

// SyncResponse is the response of /transactions/sync. Added may legitimately
// be empty on a fully synced stream; a missing field is surfaced to callers
// as a nil slice.
type SyncResponse struct {
	Added      []SyncedTransaction `json:"added"`
	NextCursor string              `json:"next_cursor"`
	HasMore    bool                `json:"has_more"`
	RequestID  string              `json:"request_id"`
}

// ExchangeResponse is the response of /item/public_token/exchange.
type ExchangeResponse struct {
	AccessToken string `json:"access_token"`
	ItemID      string `json:"item_id"`
}

// LinkTokenResponse is the response of /link/token/create.
type LinkTokenResponse struct {
	LinkToken  string `json:"link_token"`
	Expiration string `json:"expiration"`
}

// ProcessorTokenResponse is the response of /processor/token/create.
type ProcessorTokenResponse struct {
	ProcessorToken string `json:"processor_token"`
}

type linkTokenUser struct {
	ClientUserID string `json:"client_user_id"`
}

// CreateLinkToken creates a token for the client-side Link flow.
func (c *Client) CreateLinkToken(ctx context.Context, userID, clientName string) (*LinkTokenResponse, error) {
	payload := map[string]any{
		"user":          linkTokenUser{ClientUserID: userID},
		"client_name":   clientName,
		"products":      []string{"auth", "transactions"},
		"language":      "en",
		"country_codes": []string{"US"},
	}

	var resp LinkTokenResponse
	if err := c.post(ctx, linkTokenCreatePath, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateUpdateLinkToken creates a Link token in update mode for an existing
// access token, used by the reconnection flow.
func (c *Client) CreateUpdateLinkToken(ctx context.Context, accessToken, userID string) (*LinkTokenResponse, error) {
	payload := map[string]any{
		"user":          linkTokenUser{ClientUserID: userID},
		"client_name":   "Horizon",
		"access_token":  accessToken,
		"language":      "en",
		"country_codes": []string{"US"},
	}

	var resp LinkTokenResponse
	if err := c.post(ctx, linkTokenCreatePath, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ExchangePublicToken exchanges a short-lived public token for a durable
// access token and item id.
func (c *Client) ExchangePublicToken(ctx context.Context, publicToken string) (*ExchangeResponse, error) {
	payload := map[string]any{"public_token": publicToken}

	var resp ExchangeResponse
	if err := c.post(ctx, publicTokenExchangePath, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetAccounts fetches the live account snapshot for one bank link.
func (c *Client) GetAccounts(ctx context.Context, accessToken string) (*AccountsResponse, error) {
	payload := map[string]any{"access_token": accessToken}

	var resp AccountsResponse
	if err := c.post(ctx, accountsGetPath, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetInstitution fetches institution metadata by id.
func (c *Client) GetInstitution(ctx context.Context, institutionID string) (*Institution, error) {
	payload := map[string]any{
		"institution_id": institutionID,
		"country_codes":  []string{"US"},
	}

	var resp struct {
		Institution Institution `json:"institution"`
	}
	if err := c.post(ctx, institutionsGetByIDPath, payload, &resp); err != nil {
		return nil, err
	}
	return &resp.Institution, nil
}

// TransactionsSync fetches one page of the transaction delta stream. An empty
// cursor starts from the beginning.
func (c *Client) TransactionsSync(ctx context.Context, accessToken, cursor string) (*SyncResponse, error) {
	payload := map[string]any{"access_token": accessToken}
	if cursor != "" {
		payload["cursor"] = cursor
	}

	var resp SyncResponse
	if err := c.post(ctx, transactionsSyncPath, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateProcessorToken creates a processor token for handing one account to
// the payments gateway.
func (c *Client) CreateProcessorToken(ctx context.Context, accessToken, accountID, processor string) (*ProcessorTokenResponse, error) {
	payload := map[string]any{
		"access_token": accessToken,
		"account_id":   accountID,
		"processor":    processor,
	}

	var resp ProcessorTokenResponse
	if err := c.post(ctx, processorTokenPath, payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// post executes a JSON POST with the client credentials injected into the
// body, decoding into out on success and into an APIError otherwise.
func (c *Client) post(ctx context.Context, path string, payload map[string]any, out any) error {
	payload["client_id"] = c.clientID
	payload["secret"] = c.secret

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil {
			return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
		}
		return apiErr
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
