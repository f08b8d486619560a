package models

// FeedbackRecord is one client-submitted feedback entry. Fields holds whatever
// the client sent; ID, Timestamp and SubmittedBy are assigned by the server.
type FeedbackRecord struct {
	ID          string         `json:"id"`
	Timestamp   string         `json:"timestamp"`
	SubmittedBy string         `json:"submitted_by,omitempty"`
	Fields      map[string]any `json:"fields"`
}
