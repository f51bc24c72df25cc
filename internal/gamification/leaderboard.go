package gamification

import (
	"sort"

	"github.com/quizgenius/backend/internal/models"
)

// maxLeaderboardEntries caps the collection; the lowest-ranked overflow is
// discarded.
const maxLeaderboardEntries = 100

// InsertEntry adds an entry and restores the ordering invariant: score
// descending, time ascending as the tie-break, capped at 100 entries.
func InsertEntry(entries []models.LeaderboardEntry, e models.LeaderboardEntry) []models.LeaderboardEntry {
	entries = append(entries, e)
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].TimeSpentSeconds < entries[j].TimeSpentSeconds
	})
	if len(entries) > maxLeaderboardEntries {
		entries = entries[:maxLeaderboardEntries]
	}
	return entries
}

// Rank returns the 1-based position of the entry with the given user id and
// topic, or 0 when absent.
func Rank(entries []models.LeaderboardEntry, userID, topicID string) int {
	rank := 0
	for _, e := range entries {
		if e.TopicID != topicID {
			continue
		}
		rank++
		if e.UserID == userID {
			return rank
		}
	}
	return 0
}

// TopForTopic returns up to limit entries for one topic, highest first.
func TopForTopic(entries []models.LeaderboardEntry, topicID string, limit int) []models.LeaderboardEntry {
	if limit <= 0 {
		limit = 20
	}
	out := make([]models.LeaderboardEntry, 0, limit)
	for _, e := range entries {
		if e.TopicID != topicID {
			continue
		}
		out = append(out, e)
		if len(out) == limit {
			break
		}
	}
	return out
}
