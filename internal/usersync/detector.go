package usersync

import "fmt"

// ChangeInitialLoad is the sentinel summary for a user with no prior snapshot.
const ChangeInitialLoad = "initial_data_load"

// HasChanged is the cheap pre-check: true when there is no prior snapshot or
// any monitored economy field or the achievement count differs.
func HasChanged(old *UserSnapshot, cur UserSnapshot) bool {
	if old == nil {
		return true
	}
	return old.Economy.Fragments != cur.Economy.Fragments ||
		old.Economy.Level != cur.Economy.Level ||
		old.Economy.XP != cur.Economy.XP ||
		old.Economy.DataShards != cur.Economy.DataShards ||
		old.Economy.DailyStreak != cur.Economy.DailyStreak ||
		old.Economy.Lives != cur.Economy.Lives ||
		len(old.Achievements) != len(cur.Achievements)
}

// Diff summarizes what changed between two snapshots as UI-facing tags.
// A nil old snapshot yields exactly the initial-load sentinel.
func Diff(old *UserSnapshot, cur UserSnapshot) []string {
	if old == nil {
		return []string{ChangeInitialLoad}
	}

	changes := []string{}
	changes = appendDelta(changes, "fragments", old.Economy.Fragments, cur.Economy.Fragments)
	if cur.Economy.Level > old.Economy.Level {
		changes = append(changes, fmt.Sprintf("level_up_to_%d", cur.Economy.Level))
	}
	if d := cur.Economy.XP - old.Economy.XP; d > 0 {
		changes = append(changes, fmt.Sprintf("gained_%d_xp", d))
	}
	changes = appendDelta(changes, "shards", old.Economy.DataShards, cur.Economy.DataShards)
	if cur.Economy.DailyStreak > old.Economy.DailyStreak {
		changes = append(changes, fmt.Sprintf("streak_extended_to_%d", cur.Economy.DailyStreak))
	}
	changes = appendDelta(changes, "lives", old.Economy.Lives, cur.Economy.Lives)
	if d := len(cur.Achievements) - len(old.Achievements); d > 0 {
		changes = append(changes, fmt.Sprintf("earned_%d_achievements", d))
	}
	// Quest contents are collaborator-defined; only the count is watched.
	if len(cur.Quests) != len(old.Quests) {
		changes = append(changes, "quest_progress_updated")
	}
	return changes
}

func appendDelta(changes []string, unit string, old, cur int64) []string {
	switch {
	case cur > old:
		return append(changes, fmt.Sprintf("gained_%d_%s", cur-old, unit))
	case cur < old:
		return append(changes, fmt.Sprintf("lost_%d_%s", old-cur, unit))
	default:
		return changes
	}
}
