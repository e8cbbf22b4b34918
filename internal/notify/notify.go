// Package notify delivers accepted leads to the site owner.
package notify

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Lead is a validated submission enriched with request metadata.
type Lead struct {
	Reference    string
	Name         string
	Email        string
	Phone        string
	BusinessType string
	HasWebsite   string
	Goals        string
	Lang         string
	// SubmittedAt is the server receive time; SubmittedAtDisplay is the same
	// instant rendered in the site's display time zone.
	SubmittedAt        time.Time
	SubmittedAtDisplay string
	// Identity is the caller address, empty when unknown.
	Identity string
}

// Notifier hands a lead to an outbound channel.
type Notifier interface {
	Send(ctx context.Context, lead Lead) error
}

// LogNotifier logs leads instead of sending them. Used in development.
type LogNotifier struct{}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

// Send logs the lead at info level.
func (n *LogNotifier) Send(_ context.Context, lead Lead) error {
	log.WithFields(log.Fields{
		"reference":     lead.Reference,
		"name":          lead.Name,
		"email":         lead.Email,
		"phone":         lead.Phone,
		"business_type": lead.BusinessType,
		"has_website":   lead.HasWebsite,
		"submitted_at":  lead.SubmittedAtDisplay,
		"identity":      lead.Identity,
	}).Info("notify: lead received (log sink)")
	return nil
}
