// Package ledger records evaluated model requests.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultListLimit is used by ListRecent when the caller passes limit ≤ 0.
const DefaultListLimit = 50

// MaxListLimit caps ListRecent.
const MaxListLimit = 500

// Entry is one evaluated request.
type Entry struct {
	ID        string          `json:"id"`
	Model     string          `json:"model"`
	Request   json.RawMessage `json:"request"`
	Metrics   json.RawMessage `json:"metrics"`
	Rho       float64         `json:"rho"`
	CreatedAt time.Time       `json:"created_at"`
}

// Store defines persistence behaviour for the ledger.
type Store interface {
	Record(ctx context.Context, entry Entry) (Entry, error)
	ListRecent(ctx context.Context, model string, limit int) ([]Entry, error)
	Close() error
}

// Prepare validates e and fills the ID and CreatedAt defaults. Store
// implementations call it before inserting.
func Prepare(e Entry) (Entry, error) {
	if strings.TrimSpace(e.Model) == "" {
		return Entry{}, errors.New("ledger entry requires a model")
	}
	if len(e.Request) == 0 || !json.Valid(e.Request) {
		return Entry{}, errors.New("ledger entry requires a JSON request")
	}
	if len(e.Metrics) == 0 || !json.Valid(e.Metrics) {
		return Entry{}, errors.New("ledger entry requires JSON metrics")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	} else if _, err := uuid.Parse(e.ID); err != nil {
		return Entry{}, fmt.Errorf("invalid entry id %q: %w", e.ID, err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return e, nil
}

// ClampLimit applies DefaultListLimit and MaxListLimit.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return min(limit, MaxListLimit)
}
