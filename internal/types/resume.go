// Package types provides type definitions for structured data used throughout the resume-tailor system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "strings"

// ResumeProfile is a stored base resume, keyed by Name.
type ResumeProfile struct {
	Name           string       `json:"name"`
	RoleName       string       `json:"role_name"`
	Email          string       `json:"email"`
	Phone          string       `json:"phone"`
	Address        string       `json:"address"`
	LinkedIn       string       `json:"linkedin"`
	ProfileSummary string       `json:"profile_summary"`
	Education      []Education  `json:"education"`
	Experience     []Experience `json:"experience"`
	Skills         string       `json:"skills"`
}

// Education represents a single education entry. All fields are optional.
type Education struct {
	Degree     string `json:"degree"`
	Category   string `json:"category"`
	FromYear   string `json:"from_year"`
	ToYear     string `json:"to_year"`
	Location   string `json:"location"`
	University string `json:"university"`
}

// Experience represents a single role. Responsibilities holds newline-delimited bullets.
type Experience struct {
	Role             string `json:"role"`
	Company          string `json:"company"`
	FromDate         string `json:"from_date"`
	ToDate           string `json:"to_date"`
	Location         string `json:"location"`
	Responsibilities string `json:"responsibilities"`
}

// bulletMarkers are stripped from both ends of each responsibility line
const bulletMarkers = "•-*\t "

// Bullets splits Responsibilities into display lines with bullet markers removed.
// Blank lines are dropped; order is preserved.
func (e Experience) Bullets() []string {
	var bullets []string
	for _, line := range strings.Split(e.Responsibilities, "\n") {
		line = strings.Trim(strings.TrimSpace(line), bulletMarkers)
		if line == "" {
			continue
		}
		bullets = append(bullets, line)
	}
	return bullets
}

// Clone returns a deep copy so callers can derive documents without touching the original
func (r ResumeProfile) Clone() ResumeProfile {
	out := r
	if r.Education != nil {
		out.Education = append([]Education(nil), r.Education...)
	}
	if r.Experience != nil {
		out.Experience = append([]Experience(nil), r.Experience...)
	}
	return out
}

// FileKey normalizes a profile name the way the resume store keys its files and counters:
// trimmed, lowercased, spaces replaced by underscores.
func FileKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}
