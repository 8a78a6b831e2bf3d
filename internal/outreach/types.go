package outreach

import "time"

// Delivery statuses stored on history records.
const (
	StatusSent   = "SENT"
	StatusFailed = "FAILED"
)

// StatusInProgress marks a recipient whose dispatch has started but not finished.
const StatusInProgress = "IN_PROGRESS"

// SentEmail is an immutable history entry for one dispatched message.
type SentEmail struct {
	ID        string    `json:"id"`
	BatchID   string    `json:"batchId"`
	SenderID  string    `json:"senderId"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	SentAt    time.Time `json:"sentDate"`
	Status    string    `json:"status"`
}

// BatchRequest asks for one templated message per recipient.
type BatchRequest struct {
	SenderID     string   `json:"senderId" validate:"required"`
	RecipientIDs []string `json:"receiverIds"`
	Subject      string   `json:"subject"`
	BodyTemplate string   `json:"emailBody"`
}

// Outcome classifies how a single recipient's dispatch ended.
type Outcome string

const (
	OutcomeSent            Outcome = "SENT"
	OutcomeNotRegistered   Outcome = "NOT_REGISTERED"
	OutcomeTransportFailed Outcome = "TRANSPORT_FAILED"
)

// RecipientResult is the per-recipient outcome of a batch.
type RecipientResult struct {
	RecipientID string  `json:"recipientId"`
	Outcome     Outcome `json:"outcome"`
	Error       string  `json:"error,omitempty"`
}

// BatchResult summarises a dispatch call. Results follow the order of the
// request's recipient list.
type BatchResult struct {
	BatchID string            `json:"batchId"`
	Results []RecipientResult `json:"results"`
}

// Count returns how many results ended with outcome.
func (b BatchResult) Count(outcome Outcome) int {
	n := 0
	for _, r := range b.Results {
		if r.Outcome == outcome {
			n++
		}
	}
	return n
}
