package realtime

// Named realtime streams exposed to portal clients.
const (
	StreamNotifications   = "notifications"
	StreamQuotes          = "quotes"
	StreamCatalogRequests = "catalog.requests"
	StreamApplications    = "job.applications"
	StreamContacts        = "contact.submissions"
	StreamProducts        = "products"
	StreamPartnerships    = "partnerships"
)

// AdminStream returns the back-office variant of a stream, carrying the
// unscoped result set. Access is restricted to admin accounts at upgrade time.
func AdminStream(stream string) string {
	return "admin." + stream
}

// UserStreams lists the streams a regular account may subscribe to.
func UserStreams() []string {
	return []string{
		StreamNotifications,
		StreamQuotes,
		StreamCatalogRequests,
		StreamProducts,
	}
}

// AdminStreams lists every stream, including back-office variants.
func AdminStreams() []string {
	base := []string{
		StreamNotifications,
		StreamQuotes,
		StreamCatalogRequests,
		StreamApplications,
		StreamContacts,
		StreamProducts,
		StreamPartnerships,
	}
	all := make([]string, 0, len(base)*2)
	all = append(all, base...)
	for _, stream := range base {
		all = append(all, AdminStream(stream))
	}
	return all
}
