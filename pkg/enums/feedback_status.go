package enums

import "fmt"

// FeedbackStatus tracks the triage state of a feedback message.
type FeedbackStatus string

const (
	FeedbackStatusNew     FeedbackStatus = "new"
	FeedbackStatusRead    FeedbackStatus = "read"
	FeedbackStatusReplied FeedbackStatus = "replied"
	FeedbackStatusClosed  FeedbackStatus = "closed"
)

var validFeedbackStatuses = []FeedbackStatus{
	FeedbackStatusNew,
	FeedbackStatusRead,
	FeedbackStatusReplied,
	FeedbackStatusClosed,
}

// String implements fmt.Stringer.
func (s FeedbackStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known FeedbackStatus.
func (s FeedbackStatus) IsValid() bool {
	for _, candidate := range validFeedbackStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseFeedbackStatus converts raw input into a FeedbackStatus.
func ParseFeedbackStatus(value string) (FeedbackStatus, error) {
	for _, candidate := range validFeedbackStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid feedback status %q", value)
}
