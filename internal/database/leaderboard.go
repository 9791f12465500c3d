package database

import "context"

type LeaderboardEntry struct {
	Username    string
	TotalPoints int
}

// ListTopUsers orders by points and breaks ties by username so equal scores
// come back in a stable order.
func (q *Queries) ListTopUsers(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	query := `
		SELECT username, total_points
		FROM users
		ORDER BY total_points DESC, username ASC
		LIMIT $1
	`
	rows, err := q.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.TotalPoints); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}
