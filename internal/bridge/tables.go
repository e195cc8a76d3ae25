package bridge

import (
	"github.com/tradegatehq/tradegate/internal/models"
	"github.com/tradegatehq/tradegate/internal/realtime"
)

// TableConfig describes how one watched table maps onto realtime streams and
// notifications. The watcher iterates this configuration instead of carrying
// a hand-written variant per table.
type TableConfig struct {
	// Table is the database table name, as carried on feed events.
	Table string

	// Stream is the realtime stream refreshed when the table changes.
	Stream string

	// ScopeColumn names the owner reference column. Empty for public tables
	// with no account attached.
	ScopeColumn string

	// LabelColumn names the column whose value identifies the record in
	// human-readable notices.
	LabelColumn string

	// ResponseColumn names the free-text column admins write into. Together
	// with status it forms the full set of tracked fields.
	ResponseColumn string

	// Category is the durable notification category for this table.
	Category string

	// Noun is the human name of a record, used in notice and notification
	// text ("quote request", "partnership proposal").
	Noun string

	// RelatedQuote marks tables whose record id is stored as the
	// notification's related quote reference.
	RelatedQuote bool
}

// Owned reports whether rows in this table carry an owner reference.
func (c TableConfig) Owned() bool {
	return c.ScopeColumn != ""
}

// Tables returns the full watch configuration: every table whose changes
// drive realtime refreshes and notifications.
func Tables() []TableConfig {
	return []TableConfig{
		{
			Table:          "quote_requests",
			Stream:         realtime.StreamQuotes,
			ScopeColumn:    "user_id",
			LabelColumn:    "product_name",
			ResponseColumn: "admin_response",
			Category:       models.NotificationQuote,
			Noun:           "quote request",
			RelatedQuote:   true,
		},
		{
			Table:          "catalog_requests",
			Stream:         realtime.StreamCatalogRequests,
			ScopeColumn:    "user_id",
			LabelColumn:    "company",
			ResponseColumn: "admin_notes",
			Category:       models.NotificationCatalogue,
			Noun:           "catalogue request",
		},
		{
			Table:          "job_applications",
			Stream:         realtime.StreamApplications,
			LabelColumn:    "position",
			ResponseColumn: "admin_notes",
			Category:       models.NotificationGeneral,
			Noun:           "job application",
		},
		{
			Table:          "contact_submissions",
			Stream:         realtime.StreamContacts,
			LabelColumn:    "subject",
			ResponseColumn: "admin_notes",
			Category:       models.NotificationGeneral,
			Noun:           "contact message",
		},
		{
			Table:          "partnerships",
			Stream:         realtime.StreamPartnerships,
			LabelColumn:    "company",
			ResponseColumn: "admin_notes",
			Category:       models.NotificationGeneral,
			Noun:           "partnership proposal",
		},
		{
			// Products carry no response column: only status is tracked.
			Table:       "products",
			Stream:      realtime.StreamProducts,
			LabelColumn: "name",
			Category:    models.NotificationGeneral,
			Noun:        "product",
		},
	}
}
