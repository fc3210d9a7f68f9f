package plaid

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a machine-readable error response from the Plaid API.
type APIError struct {
	StatusCode   int    `json:"-"`
	ErrorType    string `json:"error_type"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
	RequestID    string `json:"request_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plaid API error (status %d): %s - %s", e.StatusCode, e.ErrorCode, e.ErrorMessage)
}

// Kind buckets raw gateway errors into the categories the aggregation logic
// acts on.
type Kind int

const (
	// KindOther covers errors with no special handling.
	KindOther Kind = iota
	// KindTransient covers network failures and gateway 5xx responses.
	KindTransient
	// KindInvalidCursor marks a rejected sync cursor; recoverable by one
	// full resync.
	KindInvalidCursor
	// KindCredentialExpired marks an invalid, expired, or revoked bank
	// credential; the remedy is re-linking that bank.
	KindCredentialExpired
)

// Classify maps a raw gateway error into a Kind. It is the single
// classification point: callers never inspect error codes themselves.
func Classify(err error) Kind {
	if err == nil {
		return KindOther
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		// Transport-level failure with no structured body.
		return KindTransient
	}

	switch apiErr.ErrorCode {
	case "INVALID_CURSOR", "TRANSACTIONS_SYNC_MUTATION_DURING_PAGINATION":
		return KindInvalidCursor
	case "ITEM_LOGIN_REQUIRED", "INVALID_ACCESS_TOKEN", "ACCESS_NOT_GRANTED", "ITEM_NOT_FOUND":
		return KindCredentialExpired
	}

	if apiErr.ErrorType == "ITEM_ERROR" {
		return KindCredentialExpired
	}
	if apiErr.StatusCode >= http.StatusInternalServerError {
		return KindTransient
	}

	return KindOther
}
