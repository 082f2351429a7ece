package store

import "context"

func (s *Store) ReadAchievements(ctx context.Context, userID string) ([]Achievement, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, achievement_id, name, description, icon, earned_at
		 FROM user_achievements WHERE user_id = $1 ORDER BY earned_at, id`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Achievement{}
	for rows.Next() {
		var a Achievement
		if err := rows.Scan(&a.ID, &a.AchievementID, &a.Name, &a.Description, &a.Icon, &a.EarnedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AwardAchievement grants def to the user. Awarding an already-held
// achievement is a no-op; the bool reports whether a new row was written.
func (s *Store) AwardAchievement(ctx context.Context, userID string, def AchievementDef) (bool, error) {
	ct, err := s.Pool.Exec(ctx,
		`INSERT INTO user_achievements (id, user_id, achievement_id, name, description, icon)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (user_id, achievement_id) DO NOTHING`,
		NewID(), userID, def.ID, def.Name, def.Description, def.Icon,
	)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
