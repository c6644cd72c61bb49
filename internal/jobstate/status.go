// Package jobstate holds the persistent job tracking core: stable posting
// identities, the JSON state store, and the reminder policy.
package jobstate

// Lifecycle statuses of a tracked posting.
const (
	StatusNew      = "new"
	StatusNotified = "notified"
	StatusApplied  = "applied"
	StatusIgnored  = "ignored"
	StatusClosed   = "closed"
)

// IsOpen reports whether a status still expects notifications.
func IsOpen(status string) bool {
	return status == StatusNew || status == StatusNotified
}

// IsTerminal reports whether a status ends the posting's lifecycle.
// applied/ignored are set by the user and never overwritten by automation;
// closed is set by the reconciler when a posting stops appearing.
func IsTerminal(status string) bool {
	return status == StatusApplied || status == StatusIgnored || status == StatusClosed
}

// IsUserTerminal reports whether a status was set by user action and must
// survive any reconciliation pass.
func IsUserTerminal(status string) bool {
	return status == StatusApplied || status == StatusIgnored
}
