// Package conversation persists per-session conversation contexts: the
// message history, carried entities, intent sequence and rolling summary
// the reasoning pipeline reads and writes on every turn.
package conversation

import (
	"time"

	"github.com/zhaddad/aeromind/internal/domain"
)

// MaxContextMessages caps the active message list. Older messages beyond
// the cap are summarized and dropped.
const MaxContextMessages = 50

// Roles of conversation messages.
const (
	RoleUser   = "user"
	RoleAgent  = "agent"
	RoleSystem = "system"
)

// Message is a single conversation turn.
type Message struct {
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Timestamp  time.Time `json:"timestamp"`
	ResponseID string    `json:"responseId,omitempty"`
}

// Context is the persistent state of one conversation session.
type Context struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"`
	StartTime      time.Time        `json:"startTime"`
	LastUpdateTime time.Time        `json:"lastUpdateTime"`
	Messages       []Message        `json:"messages"`
	Entities       domain.EntityBag `json:"entities"`
	Intents        []string         `json:"intents"`
	Summary        string           `json:"summary,omitempty"`
	TopicTags      []string         `json:"topicTags"`
	ContextQuality float64          `json:"contextQuality"`
}

// AgentMessageCount counts agent turns in the active message list.
func (c *Context) AgentMessageCount() int {
	n := 0
	for _, m := range c.Messages {
		if m.Role == RoleAgent {
			n++
		}
	}
	return n
}

// RecentMessages returns the last n messages, oldest first.
func (c *Context) RecentMessages(n int) []Message {
	if len(c.Messages) <= n {
		return c.Messages
	}
	return c.Messages[len(c.Messages)-n:]
}
