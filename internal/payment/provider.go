// Package payment abstracts the external payment provider. The core
// never talks to the provider SDK directly: services depend on the
// Provider interface so the charge flow can be exercised in tests and
// the provider swapped without touching reservation logic.
package payment

import "context"

// Metadata keys attached to every checkout session. The provider's
// stored copy of these values is the authoritative source during
// verification; values supplied by the verify caller are never trusted.
const (
	MetaShowID = "show_id"
	MetaUserID = "user_id"
	MetaSeats  = "seats" // JSON-encoded array of seat labels
)

// LineItem is one billable entry on a checkout session.
type LineItem struct {
	Name            string // display name, e.g. "Interstellar - RECLINER Ticket"
	Description     string // optional free-form detail
	UnitAmountCents int64  // price per unit in the currency's smallest unit
	Quantity        int64  // number of units
}

// SessionRequest describes a checkout session to create. Metadata must
// carry the show id, user id and seat snapshot; the provider stores it
// opaquely and returns it verbatim on retrieval.
type SessionRequest struct {
	Metadata       map[string]string
	LineItems      []LineItem
	SuccessURL     string
	CancelURL      string
	CustomerEmail  string // optional; empty means the provider collects it
	IdempotencyKey string // guards against duplicate sessions on retry
}

// Session is the provider's view of a checkout attempt.
type Session struct {
	ID               string
	URL              string // hosted payment page; empty on retrieval
	Paid             bool
	AmountTotalCents int64 // total the provider collected (or will collect)
	Metadata         map[string]string
}

// Provider creates and retrieves checkout sessions. Both calls are
// suspending I/O: implementations must honor the context deadline and
// callers must never hold inventory locks across them.
type Provider interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (*Session, error)
}
