package dwolla

import (
	"context"
	"testing"
)

func TestNormalizeState(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"NY", "NY"},
		{"ny", "NY"},
		{"New York", "NY"},
		{"new york", "NY"},
		{"California", "CA"},
		{" Texas ", "TX"},
		{"Atlantis", "AT"}, // unknown names fall back to the first two letters
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := normalizeState(tt.input); got != tt.want {
				t.Errorf("normalizeState(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCreateCustomer_ValidationFailures(t *testing.T) {
	client := &Client{}

	tests := []struct {
		name     string
		customer Customer
	}{
		{
			name:     "missing names",
			customer: Customer{Email: "a@example.com", Address1: "1 Main St", City: "Town", State: "NY", PostalCode: "10001", DateOfBirth: "1990-01-01", SSN: "1234"},
		},
		{
			name:     "bad email",
			customer: Customer{FirstName: "Ada", LastName: "Lovelace", Email: "not-an-email", Address1: "1 Main St", City: "Town", State: "NY", PostalCode: "10001", DateOfBirth: "1990-01-01", SSN: "1234"},
		},
		{
			name:     "short ssn",
			customer: Customer{FirstName: "Ada", LastName: "Lovelace", Email: "a@example.com", Address1: "1 Main St", City: "Town", State: "NY", PostalCode: "10001", DateOfBirth: "1990-01-01", SSN: "12"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Validation rejects the request before any HTTP call is made,
			// so a zero-value client is safe here.
			if _, err := client.CreateCustomer(context.Background(), tt.customer); err == nil {
				t.Error("CreateCustomer() accepted invalid customer")
			}
		})
	}
}

func TestExtractCustomerID(t *testing.T) {
	url := "https://api-sandbox.dwolla.com/customers/0aa99995-eff8-4ab1-9fbf-9f6262ebff1e"
	want := "0aa99995-eff8-4ab1-9fbf-9f6262ebff1e"
	if got := extractCustomerID(url); got != want {
		t.Errorf("extractCustomerID() = %q, want %q", got, want)
	}

	if got := extractCustomerID(want); got != want {
		t.Errorf("extractCustomerID() on bare id = %q, want %q", got, want)
	}
}
