// Package longterm persists memory across sessions: user preferences,
// decision records, observed patterns and sanitized conversation snapshots,
// subject to a retention policy.
package longterm

import "time"

// Record categories.
const (
	CategoryPreference = "PREFERENCE"
	CategoryData       = "DATA"
	CategoryConstraint = "CONSTRAINT"
	CategoryPattern    = "PATTERN"
	CategoryDecision   = "DECISION"
)

// Retention periods in days by record kind.
const (
	RetentionConversationDefault = 90
	RetentionInteraction         = 180
	RetentionPreference          = 365
	RetentionOrgDefault          = 730
	RetentionOrgCritical         = 1825
)

// CaptureInterval is how many agent messages elapse between periodic
// long-term captures of a conversation.
const CaptureInterval = 5

// Record is a single long-term memory entry.
type Record struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	ContextID     string    `json:"contextId,omitempty"`
	Content       string    `json:"content"`
	Category      string    `json:"category"`
	Importance    float64   `json:"importance"`
	Outcome       string    `json:"outcome,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	RetentionDays int       `json:"retentionDays"`
}

// EnhancedContext is the cross-session context bundle assembled for a user.
type EnhancedContext struct {
	UserPreferences  []Record `json:"userPreferences"`
	RecentTopics     []string `json:"recentTopics"`
	RecentDecisions  []Record `json:"recentDecisions"`
	RelevantPatterns []Record `json:"relevantPatterns"`
}
