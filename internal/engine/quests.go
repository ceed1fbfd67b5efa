package engine

import (
	"context"
	"errors"
	"fmt"

	"example.com/liftlog/internal/domain"
	"example.com/liftlog/internal/progression"
)

// ClaimResult reports the outcome of one quest-claim request. Success false
// means the quest was unclaimed-able (already claimed, incomplete, or
// expired), not that the request failed.
type ClaimResult struct {
	Success     bool
	XPEarned    int64
	TotalXP     int64
	Level       int
	LeveledUp   bool
	Rank        string
	RankChanged bool
}

// ClaimQuest transfers a completed quest's reward exactly once, under the
// same per-user optimistic serialization as workout commits.
func (s *Service) ClaimQuest(ctx context.Context, tenantID, userID, questID string) (*ClaimResult, error) {
	now := s.now()
	for attempt := 0; attempt < s.retries; attempt++ {
		progress, err := s.store.GetProgress(ctx, tenantID, userID)
		if err != nil {
			return nil, fmt.Errorf("load progress: %w", err)
		}
		states, err := s.store.QuestStates(ctx, tenantID, userID)
		if err != nil {
			return nil, fmt.Errorf("load quests: %w", err)
		}

		var quest *domain.QuestState
		for i := range states {
			if states[i].QuestID == questID {
				quest = &states[i]
				break
			}
		}
		if quest == nil {
			return nil, domain.ErrQuestNotFound
		}

		// An expired period cannot be claimed even if the row still says
		// completed; the next workout will refresh it.
		if !now.Before(quest.RefreshAt) {
			quest.IsCompleted = false
		}

		progress.TenantID = tenantID
		progress.UserID = userID
		outcome := s.progression.Claim(progress, *quest, now)
		if !outcome.Success {
			return &ClaimResult{
				Success: false,
				TotalXP: progress.TotalXP,
				Level:   progression.LevelForXP(progress.TotalXP),
				Rank:    outcome.Rank,
			}, nil
		}

		err = s.store.CommitQuestClaim(ctx, domain.QuestClaim{
			Quest:    outcome.Quest,
			Progress: outcome.Progress,
			XPEarned: outcome.XPEarned,
		})
		if errors.Is(err, domain.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}

		return &ClaimResult{
			Success:     true,
			XPEarned:    outcome.XPEarned,
			TotalXP:     outcome.Progress.TotalXP,
			Level:       outcome.Progress.Level,
			LeveledUp:   outcome.LeveledUp,
			Rank:        outcome.Rank,
			RankChanged: outcome.RankChanged,
		}, nil
	}
	return nil, ErrRetriesExhausted
}
