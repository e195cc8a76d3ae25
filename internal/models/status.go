package models

// Submission statuses as written by back-office staff. The realtime layer
// treats these as opaque strings: any two distinct values are a transition.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusContacted  = "contacted"
	StatusApproved   = "approved"
	StatusCompleted  = "completed"
	StatusRejected   = "rejected"
)
