package db

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata" // Europe/Warsaw must resolve on hosts without zoneinfo

	"github.com/jonathan/resume-tailor/internal/types"
)

// countZone is the day boundary for customization counts
var countZone = mustLoadLocation("Europe/Warsaw")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(fmt.Sprintf("load location %s: %v", name, err))
	}
	return loc
}

// CountDay returns the calendar day t falls on in the counting zone, as YYYY-MM-DD
func CountDay(t time.Time) string {
	return t.In(countZone).Format(time.DateOnly)
}

// IncrementCustomizeCount bumps today's count for the profile and returns the new value
func (db *DB) IncrementCustomizeCount(ctx context.Context, profileName string, at time.Time) (int, error) {
	var count int
	err := db.pool.QueryRow(ctx,
		`INSERT INTO customize_counts (day, profile_key, count)
		 VALUES ($1::DATE, $2, 1)
		 ON CONFLICT (day, profile_key) DO UPDATE SET count = customize_counts.count + 1
		 RETURNING count`,
		CountDay(at), types.FileKey(profileName),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to increment customize count: %w", err)
	}
	return count, nil
}

// CountsForDate returns every profile's count for the given YYYY-MM-DD day
func (db *DB) CountsForDate(ctx context.Context, day string) ([]ProfileCount, error) {
	if _, err := time.Parse(time.DateOnly, day); err != nil {
		return nil, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", day)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT profile_key, count FROM customize_counts WHERE day = $1::DATE ORDER BY profile_key`,
		day,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list customize counts: %w", err)
	}
	defer rows.Close()

	counts := []ProfileCount{}
	for rows.Next() {
		var c ProfileCount
		if err := rows.Scan(&c.ProfileKey, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan customize count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

// DailyCounts is one day's report: every known profile, zero when it has no row yet
type DailyCounts struct {
	Date    string         `json:"date"`
	Counts  map[string]int `json:"counts"`
	Total   int            `json:"total"`
	Resumes []string       `json:"resumes"`
}

// MergeCounts lists the stored profiles in order with their counts, followed by
// counted keys whose profile no longer exists
func MergeCounts(day string, profiles []string, counts []ProfileCount) DailyCounts {
	byKey := make(map[string]int, len(counts))
	for _, c := range counts {
		byKey[c.ProfileKey] = c.Count
	}

	out := DailyCounts{Date: day, Counts: make(map[string]int, len(profiles)+len(counts)), Resumes: []string{}}
	add := func(key string, n int) {
		if _, seen := out.Counts[key]; seen {
			return
		}
		out.Counts[key] = n
		out.Resumes = append(out.Resumes, key)
		out.Total += n
	}
	for _, name := range profiles {
		key := types.FileKey(name)
		add(key, byKey[key])
	}
	for _, c := range counts {
		add(c.ProfileKey, c.Count)
	}
	return out
}
