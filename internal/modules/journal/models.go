// Package journal implements the daily journal: a pre-market outlook and an
// end-of-day review, one of each per trading day.
package journal

import "time"

// Outlook is the pre-market plan for a trading day
type Outlook struct {
	ID        int64     `json:"id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Bias      string    `json:"bias,omitempty"`
	KeyLevels string    `json:"key_levels,omitempty"`
	Plan      string    `json:"plan,omitempty"`
	Emotion   string    `json:"emotion,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Review is the end-of-day reflection for a trading day
type Review struct {
	ID           int64     `json:"id"`
	Date         string    `json:"date"` // YYYY-MM-DD
	Summary      string    `json:"summary,omitempty"`
	FollowedPlan *bool     `json:"followed_plan,omitempty"`
	Mistakes     string    `json:"mistakes,omitempty"`
	Wins         string    `json:"wins,omitempty"`
	Rating       *int      `json:"rating,omitempty"` // 1-5
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Day pairs the outlook and review of one date for listing
type Day struct {
	Date    string   `json:"date"`
	Outlook *Outlook `json:"outlook,omitempty"`
	Review  *Review  `json:"review,omitempty"`
}
