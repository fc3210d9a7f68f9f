package dwolla

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"horizon/internal/shared/config"
)

const defaultTimeout = 30 * time.Second

// ClientInterface defines the methods required from the Dwolla API client
type ClientInterface interface {
	CreateCustomer(ctx context.Context, customer Customer) (string, error)
	AddFundingSource(ctx context.Context, customerURL, processorToken, bankName string) (string, error)
	CreateTransfer(ctx context.Context, sourceURL, destinationURL string, amount decimal.Decimal) (string, error)
}

// Client handles communication with the Dwolla API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
	secret     string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// Ensure Client implements ClientInterface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a Dwolla API client for the configured environment.
func NewClient(cfg config.DwollaConfig) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL: cfg.BaseURL(),
		key:     cfg.Key,
		secret:  cfg.Secret,
	}
}

// APIError is an error response from the Dwolla API.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	Embedded   struct {
		Errors []FieldError `json:"errors"`
	} `json:"_embedded"`
}

// FieldError is one validation failure inside an API error.
type FieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Path    string `json:"path"`
	Links   struct {
		About struct {
			Href string `json:"href"`
		} `json:"about"`
	} `json:"_links"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dwolla API error (status %d): %s - %s", e.StatusCode, e.Code, e.Message)
}

// token obtains a client-credentials access token, reusing a cached one
// until shortly before expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.key, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}

	c.accessToken = tokenResp.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn-60) * time.Second)
	return c.accessToken, nil
}

// post executes an authenticated JSON POST. Dwolla returns created resource
// URLs in the Location header.
func (c *Client) post(ctx context.Context, path string, payload any) (location string, err error) {
	token, err := c.token(ctx)
	if err != nil {
		return "", err
	}

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/vnd.dwolla.v1.hal+json")
	req.Header.Set("Accept", "application/vnd.dwolla.v1.hal+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		respBody, _ := io.ReadAll(resp.Body)
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil {
			return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
		}
		return "", apiErr
	}

	return resp.Header.Get("Location"), nil
}

// getLinks fetches the _links object of a POSTed resource body; used for
// on-demand authorizations, whose links are in the body rather than Location.
func (c *Client) postForLinks(ctx context.Context, path string) (map[string]Link, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.dwolla.v1.hal+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(respBody, apiErr); err != nil {
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
		}
		return nil, apiErr
	}

	var parsed struct {
		Links map[string]Link `json:"_links"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return parsed.Links, nil
}

// Link is a HAL link reference.
type Link struct {
	Href string `json:"href"`
}

// CreateOnDemandAuthorization creates the authorization links some funding
// source creations require.
func (c *Client) CreateOnDemandAuthorization(ctx context.Context) (map[string]Link, error) {
	links, err := c.postForLinks(ctx, "/on-demand-authorizations")
	if err != nil {
		return nil, fmt.Errorf("failed to create on-demand authorization: %w", err)
	}
	return links, nil
}

// CreateFundingSource registers a bank account as a funding source using a
// processor token and returns the funding source URL.
func (c *Client) CreateFundingSource(ctx context.Context, customerURL, name, processorToken string, authLinks map[string]Link) (string, error) {
	customerID := extractCustomerID(customerURL)
	if customerID == "" {
		return "", fmt.Errorf("invalid customer URL %q", customerURL)
	}

	payload := map[string]any{
		"name":       name,
		"plaidToken": processorToken,
	}
	if len(authLinks) > 0 {
		payload["_links"] = authLinks
	}

	location, err := c.post(ctx, "/customers/"+customerID+"/funding-sources", payload)
	if err != nil {
		return "", fmt.Errorf("failed to create funding source: %w", err)
	}
	if location == "" {
		return "", fmt.Errorf("funding source response missing Location header")
	}
	return location, nil
}

// AddFundingSource creates a funding source, retrying once with on-demand
// authorization links when the plain creation is rejected.
func (c *Client) AddFundingSource(ctx context.Context, customerURL, processorToken, bankName string) (string, error) {
	if processorToken == "" {
		return "", fmt.Errorf("processor token is required")
	}

	location, err := c.CreateFundingSource(ctx, customerURL, bankName, processorToken, nil)
	if err == nil {
		return location, nil
	}

	log.Printf("Funding source creation without auth links failed, retrying with on-demand authorization: %v", err)
	authLinks, authErr := c.CreateOnDemandAuthorization(ctx)
	if authErr != nil {
		return "", authErr
	}
	return c.CreateFundingSource(ctx, customerURL, bankName, processorToken, authLinks)
}

// CreateTransfer moves money between two funding sources and returns the
// transfer URL.
func (c *Client) CreateTransfer(ctx context.Context, sourceURL, destinationURL string, amount decimal.Decimal) (string, error) {
	payload := map[string]any{
		"_links": map[string]Link{
			"source":      {Href: sourceURL},
			"destination": {Href: destinationURL},
		},
		"amount": map[string]string{
			"currency": "USD",
			"value":    amount.StringFixed(2),
		},
	}

	location, err := c.post(ctx, "/transfers", payload)
	if err != nil {
		return "", fmt.Errorf("failed to create transfer: %w", err)
	}
	return location, nil
}

// extractCustomerID pulls the customer id out of a customer resource URL.
func extractCustomerID(customerURL string) string {
	trimmed := strings.TrimSuffix(customerURL, "/")
	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return trimmed
	}
	return trimmed[idx+1:]
}
