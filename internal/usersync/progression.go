package usersync

import (
	"context"

	"github.com/rs/zerolog/log"

	"nexus-activity/internal/store"
)

const (
	levelCap          = 100
	xpPerLevel        = 100
	levelBonusPerStep = 50
)

// Achievements granted when a level milestone is crossed.
var levelMilestones = map[int64]store.AchievementDef{
	5:  {ID: "level_5", Name: "Signal Acquired", Description: "Reached level 5", Icon: "📡"},
	10: {ID: "level_10", Name: "Fragment Hunter", Description: "Reached level 10", Icon: "💠"},
	25: {ID: "level_25", Name: "Shard Collector", Description: "Reached level 25", Icon: "🔷"},
	50: {ID: "level_50", Name: "Nexus Legend", Description: "Reached level 50", Icon: "🌌"},
}

// ProgressDelta is a game-economy gain reported by a finished minigame.
type ProgressDelta struct {
	XPGained        int64 `json:"xp_gained"`
	FragmentsGained int64 `json:"fragments_gained"`
	ShardsGained    int64 `json:"shards_gained"`
}

// ApplyProgress persists the delta, resolving every pending level-up in one
// call: the threshold for the current level is level*100 XP, each level
// crossed pays a newLevel*50 fragment bonus, and XP keeps its accumulated
// value rather than rolling over. Returns false (never panics) on store
// failure; the cache entry is dropped whenever anything may have been
// written, so the next sync observes fresh state.
func (o *Orchestrator) ApplyProgress(ctx context.Context, userID string, delta ProgressDelta) bool {
	if userID == "" {
		return false
	}
	metricProgressTotal.Add(1)

	// Fresh read, never the cache: stale levels would double-apply bonuses.
	user, err := o.store.EnsureUser(ctx, userID)
	if err != nil {
		metricProgressErrorsTotal.Add(1)
		log.Error().Err(err).Str("user_id", userID).Msg("progress read failed")
		return false
	}
	defer o.cache.Invalidate(userID)

	newXP := user.XP + delta.XPGained
	newLevel := user.Level
	var bonus int64
	for newXP >= xpPerLevel*newLevel && newLevel < levelCap {
		newLevel++
		bonus += newLevel * levelBonusPerStep
	}

	if newXP != user.XP || newLevel != user.Level {
		upd := store.EconomyUpdate{XP: &newXP, Level: &newLevel}
		if err := o.store.WriteEconomy(ctx, userID, upd); err != nil {
			metricProgressErrorsTotal.Add(1)
			log.Error().Err(err).Str("user_id", userID).Msg("progress write failed")
			return false
		}
	}
	if total := delta.FragmentsGained + bonus; total != 0 {
		if err := o.ledger.CreditFragments(ctx, userID, total, "progress"); err != nil {
			metricProgressErrorsTotal.Add(1)
			log.Error().Err(err).Str("user_id", userID).Msg("fragment credit failed")
			return false
		}
	}
	if delta.ShardsGained != 0 {
		if err := o.ledger.CreditShards(ctx, userID, delta.ShardsGained, "progress"); err != nil {
			metricProgressErrorsTotal.Add(1)
			log.Error().Err(err).Str("user_id", userID).Msg("shard credit failed")
			return false
		}
	}

	for lv := user.Level + 1; lv <= newLevel; lv++ {
		def, ok := levelMilestones[lv]
		if !ok {
			continue
		}
		if _, err := o.store.AwardAchievement(ctx, userID, def); err != nil {
			// Milestone grants are not worth failing the whole update over.
			log.Warn().Err(err).Str("user_id", userID).Str("achievement", def.ID).Msg("achievement award failed")
		}
	}

	if newLevel > user.Level {
		if err := o.store.AppendAuditLog(ctx, userID, "level_up", map[string]any{
			"from": user.Level, "to": newLevel, "bonus_fragments": bonus,
		}); err != nil {
			log.Warn().Err(err).Str("user_id", userID).Msg("level audit write failed")
		}
	}
	if err := o.store.IncrementStat(ctx, userID, "games_completed", 1); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("games stat increment failed")
	}
	return true
}
