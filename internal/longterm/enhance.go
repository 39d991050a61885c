package longterm

import (
	"context"
	"encoding/json"
)

// recentDecisionLimit bounds how many past decisions feed the enhanced
// context.
const recentDecisionLimit = 5

// EnhanceContext assembles the cross-session context bundle for a user:
// stored preferences, recent topics from conversation snapshots, the last
// few decisions and observed patterns.
func (s *Store) EnhanceContext(ctx context.Context, userID string) (*EnhancedContext, error) {
	prefs, err := s.Records(ctx, userID, CategoryPreference, 0)
	if err != nil {
		return nil, err
	}
	decisions, err := s.Records(ctx, userID, CategoryDecision, recentDecisionLimit)
	if err != nil {
		return nil, err
	}
	patterns, err := s.Records(ctx, userID, CategoryPattern, 0)
	if err != nil {
		return nil, err
	}
	snapshots, err := s.Records(ctx, userID, CategoryData, 3)
	if err != nil {
		return nil, err
	}

	return &EnhancedContext{
		UserPreferences:  prefs,
		RecentTopics:     topicsFromSnapshots(snapshots),
		RecentDecisions:  decisions,
		RelevantPatterns: patterns,
	}, nil
}

// topicsFromSnapshots pulls topic tags out of stored conversation
// snapshots, deduplicated in recency order.
func topicsFromSnapshots(snapshots []Record) []string {
	seen := make(map[string]bool)
	var topics []string
	for _, snap := range snapshots {
		var payload struct {
			TopicTags []string `json:"topicTags"`
		}
		if err := json.Unmarshal([]byte(snap.Content), &payload); err != nil {
			continue
		}
		for _, tag := range payload.TopicTags {
			if !seen[tag] {
				seen[tag] = true
				topics = append(topics, tag)
			}
		}
	}
	return topics
}
