package dwolla

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Customer is a personal verified customer registration request.
type Customer struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Type        string `json:"type"`
	Address1    string `json:"address1" validate:"required"`
	City        string `json:"city" validate:"required"`
	State       string `json:"state" validate:"required"`
	PostalCode  string `json:"postalCode" validate:"required"`
	DateOfBirth string `json:"dateOfBirth" validate:"required"`
	SSN         string `json:"ssn" validate:"required,min=4"`
}

// CreateCustomer registers a new customer and returns the customer URL. A
// duplicate-email rejection is treated as success: the existing customer URL
// is reused.
func (c *Client) CreateCustomer(ctx context.Context, customer Customer) (string, error) {
	if customer.Type == "" {
		customer.Type = "personal"
	}
	customer.State = normalizeState(customer.State)

	if err := validate.Struct(customer); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return "", fmt.Errorf("invalid customer: field %s failed %s validation", fieldErrs[0].Field(), fieldErrs[0].Tag())
		}
		return "", fmt.Errorf("invalid customer: %w", err)
	}

	location, err := c.post(ctx, "/customers", customer)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			for _, fieldErr := range apiErr.Embedded.Errors {
				if fieldErr.Code == "Duplicate" && fieldErr.Path == "/email" && fieldErr.Links.About.Href != "" {
					log.Printf("Dwolla customer already exists, reusing %s", fieldErr.Links.About.Href)
					return fieldErr.Links.About.Href, nil
				}
			}
		}
		return "", fmt.Errorf("failed to create customer: %w", err)
	}

	return location, nil
}

var stateAbbreviations = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID",
	"illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS",
	"missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK",
	"oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY",
}

// normalizeState converts a state name to its two-letter code; two-letter
// input is uppercased as-is.
func normalizeState(state string) string {
	trimmed := strings.TrimSpace(state)
	if len(trimmed) == 2 {
		return strings.ToUpper(trimmed)
	}
	if abbr, ok := stateAbbreviations[strings.ToLower(trimmed)]; ok {
		return abbr
	}
	if len(trimmed) > 2 {
		return strings.ToUpper(trimmed[:2])
	}
	return strings.ToUpper(trimmed)
}
