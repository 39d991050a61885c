package conversation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zhaddad/aeromind/internal/db"
	"github.com/zhaddad/aeromind/internal/domain"
)

// ErrConflict is returned internally when an optimistic write loses the
// race; Update retries on it.
var ErrConflict = errors.New("conversation context modified concurrently")

// maxRetries bounds optimistic-write retries. Contention is per-session so
// conflicts are rare and short-lived.
const maxRetries = 5

// Summarizer condenses overflow messages into the rolling summary when the
// active list exceeds MaxContextMessages.
type Summarizer interface {
	SummarizeMessages(ctx context.Context, existingSummary string, overflow []Message) (string, error)
}

// Store persists conversation contexts in SQLite with an optimistic
// lastUpdateTime version guard.
type Store struct {
	db         *db.DB
	summarizer Summarizer
}

// NewStore creates a store. summarizer may be nil; overflow messages are
// then dropped without updating the summary.
func NewStore(database *db.DB, summarizer Summarizer) *Store {
	return &Store{db: database, summarizer: summarizer}
}

// Get loads a conversation context. Returns (nil, nil) when the session is
// unknown.
func (s *Store) Get(ctx context.Context, sessionID string) (*Context, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, start_time, last_update_time, messages, entities, intents, summary, topic_tags, context_quality
		FROM conversation_contexts WHERE id = ?`, sessionID)

	var (
		c                                   Context
		startTime, updateTime               string
		messages, entities, intents, topics string
	)
	err := row.Scan(&c.ID, &c.UserID, &startTime, &updateTime, &messages, &entities, &intents, &c.Summary, &topics, &c.ContextQuality)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading conversation %s: %w", sessionID, err)
	}

	if c.StartTime, err = parseTime(startTime); err != nil {
		return nil, fmt.Errorf("parsing start time: %w", err)
	}
	if c.LastUpdateTime, err = parseTime(updateTime); err != nil {
		return nil, fmt.Errorf("parsing update time: %w", err)
	}
	if err := json.Unmarshal([]byte(messages), &c.Messages); err != nil {
		return nil, fmt.Errorf("decoding messages: %w", err)
	}
	if err := json.Unmarshal([]byte(entities), &c.Entities); err != nil {
		return nil, fmt.Errorf("decoding entities: %w", err)
	}
	if err := json.Unmarshal([]byte(intents), &c.Intents); err != nil {
		return nil, fmt.Errorf("decoding intents: %w", err)
	}
	if err := json.Unmarshal([]byte(topics), &c.TopicTags); err != nil {
		return nil, fmt.Errorf("decoding topic tags: %w", err)
	}
	return &c, nil
}

// GetOrCreate loads a context, creating an empty one when the session is
// new.
func (s *Store) GetOrCreate(ctx context.Context, sessionID, userID string) (*Context, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if c != nil {
		return c, nil
	}

	now := time.Now().UTC()
	c = &Context{
		ID:             sessionID,
		UserID:         userID,
		StartTime:      now,
		LastUpdateTime: now,
		Messages:       []Message{},
		Entities:       domain.EntityBag{},
		Intents:        []string{},
		TopicTags:      []string{},
		ContextQuality: 0.5,
	}
	if err := s.insert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Store) insert(ctx context.Context, c *Context) error {
	messages, entities, intents, topics, err := encodeLists(c)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO conversation_contexts (id, user_id, start_time, last_update_time, messages, entities, intents, summary, topic_tags, context_quality)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, formatTime(c.StartTime), formatTime(c.LastUpdateTime),
		messages, entities, intents, c.Summary, topics, c.ContextQuality)
	if err != nil {
		return fmt.Errorf("inserting conversation %s: %w", c.ID, err)
	}
	return nil
}

// Update applies fn to the current context and writes it back under the
// optimistic version guard, retrying on conflict. fn may be invoked more
// than once and must be side-effect free outside the context.
func (s *Store) Update(ctx context.Context, sessionID string, fn func(*Context) error) (*Context, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		c, err := s.Get(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if c == nil {
			return nil, fmt.Errorf("conversation %s not found", sessionID)
		}

		if err := fn(c); err != nil {
			return nil, err
		}
		s.enforceCap(ctx, c)

		if err := s.write(ctx, c); err != nil {
			if errors.Is(err, ErrConflict) {
				lastErr = err
				continue
			}
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("updating conversation %s: %w", sessionID, lastErr)
}

// write persists c, advancing lastUpdateTime. The UPDATE only succeeds when
// the stored version token still matches the one we read; zero rows
// affected means another writer won and the caller should retry.
func (s *Store) write(ctx context.Context, c *Context) error {
	previous := c.LastUpdateTime
	now := time.Now().UTC()
	if !now.After(previous) {
		now = previous.Add(time.Millisecond)
	}
	c.LastUpdateTime = now

	messages, entities, intents, topics, err := encodeLists(c)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE conversation_contexts
		SET last_update_time = ?, messages = ?, entities = ?, intents = ?, summary = ?, topic_tags = ?, context_quality = ?
		WHERE id = ? AND last_update_time = ?`,
		formatTime(now), messages, entities, intents, c.Summary, topics, c.ContextQuality,
		c.ID, formatTime(previous))
	if err != nil {
		return fmt.Errorf("writing conversation %s: %w", c.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking write result: %w", err)
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// enforceCap summarizes and drops the oldest messages when the active list
// exceeds MaxContextMessages. Summarization failures are tolerated: the cap
// still holds, the summary just goes stale.
func (s *Store) enforceCap(ctx context.Context, c *Context) {
	if len(c.Messages) <= MaxContextMessages {
		return
	}
	overflow := c.Messages[:len(c.Messages)-MaxContextMessages]
	c.Messages = append([]Message(nil), c.Messages[len(c.Messages)-MaxContextMessages:]...)

	if s.summarizer == nil {
		return
	}
	if summary, err := s.summarizer.SummarizeMessages(ctx, c.Summary, overflow); err == nil && summary != "" {
		c.Summary = summary
	}
}

// AddUserMessage appends a user turn and records the classified intent.
func (s *Store) AddUserMessage(ctx context.Context, sessionID, content, intentLabel string) (*Context, error) {
	return s.Update(ctx, sessionID, func(c *Context) error {
		c.Messages = append(c.Messages, Message{
			Role:      RoleUser,
			Content:   content,
			Timestamp: time.Now().UTC(),
		})
		if intentLabel != "" {
			c.Intents = append(c.Intents, intentLabel)
		}
		return nil
	})
}

// AddAgentMessage appends an agent turn.
func (s *Store) AddAgentMessage(ctx context.Context, sessionID, content, responseID string) (*Context, error) {
	return s.Update(ctx, sessionID, func(c *Context) error {
		c.Messages = append(c.Messages, Message{
			Role:       RoleAgent,
			Content:    content,
			Timestamp:  time.Now().UTC(),
			ResponseID: responseID,
		})
		return nil
	})
}

// MergeEntities folds newly resolved entities into the carried bag.
func (s *Store) MergeEntities(ctx context.Context, sessionID string, entities domain.EntityBag) (*Context, error) {
	return s.Update(ctx, sessionID, func(c *Context) error {
		if c.Entities == nil {
			c.Entities = domain.EntityBag{}
		}
		for k, v := range entities {
			c.Entities[k] = v
		}
		return nil
	})
}

func encodeLists(c *Context) (messages, entities, intents, topics string, err error) {
	b, err := json.Marshal(c.Messages)
	if err != nil {
		return "", "", "", "", fmt.Errorf("encoding messages: %w", err)
	}
	messages = string(b)
	if b, err = json.Marshal(c.Entities); err != nil {
		return "", "", "", "", fmt.Errorf("encoding entities: %w", err)
	}
	entities = string(b)
	if b, err = json.Marshal(c.Intents); err != nil {
		return "", "", "", "", fmt.Errorf("encoding intents: %w", err)
	}
	intents = string(b)
	if b, err = json.Marshal(c.TopicTags); err != nil {
		return "", "", "", "", fmt.Errorf("encoding topic tags: %w", err)
	}
	topics = string(b)
	return messages, entities, intents, topics, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	// Rows created by SQLite defaults use datetime('now') format.
	return time.Parse("2006-01-02 15:04:05", s)
}
