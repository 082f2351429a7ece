package usersync

import (
	"testing"

	"nexus-activity/internal/store"
)

func snapWith(eco Economy, achievements int) UserSnapshot {
	a := make([]store.Achievement, achievements)
	return UserSnapshot{UserID: "u1", Economy: eco, Achievements: a}
}

func TestDiffInitialLoad(t *testing.T) {
	changes := Diff(nil, snapWith(Economy{Fragments: 100}, 0))
	if len(changes) != 1 || changes[0] != ChangeInitialLoad {
		t.Fatalf("changes = %v, want exactly [%s]", changes, ChangeInitialLoad)
	}
}

func TestDiffFragmentsGained(t *testing.T) {
	old := snapWith(Economy{Fragments: 100}, 0)
	cur := snapWith(Economy{Fragments: 350}, 0)
	changes := Diff(&old, cur)
	if !contains(changes, "gained_250_fragments") {
		t.Fatalf("changes = %v, want gained_250_fragments", changes)
	}
}

func TestDiffFragmentsLost(t *testing.T) {
	old := snapWith(Economy{Fragments: 100}, 0)
	cur := snapWith(Economy{Fragments: 60}, 0)
	changes := Diff(&old, cur)
	if !contains(changes, "lost_40_fragments") {
		t.Fatalf("changes = %v, want lost_40_fragments", changes)
	}
}

func TestDiffLevelUpAndXP(t *testing.T) {
	old := snapWith(Economy{Level: 6, XP: 580}, 0)
	cur := snapWith(Economy{Level: 7, XP: 720}, 0)
	changes := Diff(&old, cur)
	if !contains(changes, "level_up_to_7") {
		t.Fatalf("changes = %v, want level_up_to_7", changes)
	}
	if !contains(changes, "gained_140_xp") {
		t.Fatalf("changes = %v, want gained_140_xp", changes)
	}
}

func TestDiffLevelDecreaseIgnored(t *testing.T) {
	old := snapWith(Economy{Level: 7}, 0)
	cur := snapWith(Economy{Level: 6}, 0)
	changes := Diff(&old, cur)
	if len(changes) != 0 {
		t.Fatalf("changes = %v, want none for level decrease", changes)
	}
}

func TestDiffAchievementsEarned(t *testing.T) {
	old := snapWith(Economy{}, 1)
	cur := snapWith(Economy{}, 3)
	changes := Diff(&old, cur)
	if !contains(changes, "earned_2_achievements") {
		t.Fatalf("changes = %v, want earned_2_achievements", changes)
	}
}

func TestDiffQuestLengthChange(t *testing.T) {
	old := snapWith(Economy{}, 0)
	cur := snapWith(Economy{}, 0)
	cur.Quests = []string{"q1"}
	changes := Diff(&old, cur)
	if !contains(changes, "quest_progress_updated") {
		t.Fatalf("changes = %v, want quest_progress_updated", changes)
	}
}

func TestHasChanged(t *testing.T) {
	base := snapWith(Economy{Fragments: 100, Level: 2, XP: 150}, 1)

	if !HasChanged(nil, base) {
		t.Fatal("nil old must count as changed")
	}
	same := base
	if HasChanged(&base, same) {
		t.Fatal("identical snapshots must not count as changed")
	}
	bumped := base
	bumped.Economy.DailyStreak = 4
	if !HasChanged(&base, bumped) {
		t.Fatal("streak change must count as changed")
	}
	more := snapWith(base.Economy, 2)
	if !HasChanged(&base, more) {
		t.Fatal("achievement count change must count as changed")
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
