package messages

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// MessageText is one notification template. Body may contain a %s verb for
// the subject name.
type MessageText struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Catalog holds all user-facing notification texts.
type Catalog struct {
	BankReauth MessageText `json:"bank_reauth"`
}

var defaults = Catalog{
	BankReauth: MessageText{
		Title: "Bank Needs Reconnection",
		Body:  "%s lost its connection. Reconnect it to keep your balances up to date.",
	},
}

var (
	mu      sync.RWMutex
	current = defaults
)

// Load reads a JSON catalog from path and overlays it on the defaults.
// Entries missing from the file keep their default text.
func Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read messages file: %w", err)
	}

	loaded := defaults
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to parse messages file: %w", err)
	}
	if loaded.BankReauth.Title == "" {
		loaded.BankReauth = defaults.BankReauth
	}

	mu.Lock()
	current = loaded
	mu.Unlock()
	return nil
}

// BankReauth returns the current reauth alert template.
func BankReauth() MessageText {
	mu.RLock()
	defer mu.RUnlock()
	return current.BankReauth
}
