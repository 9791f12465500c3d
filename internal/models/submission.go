package models

import (
	"encoding/json"
	"time"
)

type Submission struct {
	ID        int64     `json:"id" example:"7"`
	CreatorID int64     `json:"creator_id" example:"42"`
	Question  string    `json:"question" example:"q1"`
	FileKey   string    `json:"file_key" example:"week1/0b6f0d8e-2f7c-4c55-9b53-2a1f5e0c1d11-solution.py"`
	Points    int       `json:"points" example:"30"`
	Updates   int       `json:"updates" example:"1"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubmissionRef is the slice of a submission a client needs to follow up
// with an update.
type SubmissionRef struct {
	ID        int64  `json:"id"`
	CreatorID int64  `json:"creator_id"`
	Updates   int    `json:"updates"`
	FileKey   string `json:"file_key"`
}

type ExistingSubmission struct {
	Existing   bool           `json:"existing"`
	Submission *SubmissionRef `json:"submission,omitempty"`
}

type LeaderboardRow struct {
	Username string `json:"username" example:"ada"`
	Points   int    `json:"points" example:"180"`
	Rank     int    `json:"rank" example:"1"`
}

type SignedURL struct {
	SignedURL string `json:"signed_url"`
	FileKey   string `json:"file_key"`
}

type Event struct {
	ID        int64           `json:"id"`
	EventType string          `json:"event_type"`
	EventTime time.Time       `json:"event_time"`
	Payload   json.RawMessage `json:"payload"`
}
