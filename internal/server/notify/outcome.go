package notify

// Outcome is the result of one notification attempt.
type Outcome int

const (
	Delivered Outcome = iota
	SkippedByPreference
	DeliveryFailed
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case SkippedByPreference:
		return "skipped"
	case DeliveryFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarksNotified reports whether the capsule must be flagged as notified after
// this outcome. Failed deliveries stay unflagged so the next sweep retries.
func (o Outcome) MarksNotified() bool {
	return o == Delivered || o == SkippedByPreference
}
