// Package model defines the core pipeline data types.
package model

import (
	"strconv"
	"strings"
	"time"
)

// Item represents one ingested piece of source content.
type Item struct {
	ID        string    `json:"id"`
	Hash      string    `json:"hash"`
	Date      string    `json:"date"`
	Title     string    `json:"title"`
	Author    string    `json:"author,omitempty"`
	URL       string    `json:"url"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Chunk is a size-bounded slice of a larger text.
type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// Turn is one speaker's utterance within a parsed script.
type Turn struct {
	Index   int    `json:"index"`
	Speaker int    `json:"speaker"`
	Text    string `json:"text"`
	Note    string `json:"note,omitempty"`
}

// Label returns the speaker label used in scripts and history, e.g. "Speaker 1".
func (t Turn) Label() string {
	return SpeakerLabel(t.Speaker)
}

// SpeakerLabel formats a speaker id as "Speaker N".
func SpeakerLabel(id int) string {
	return "Speaker " + strconv.Itoa(id)
}

// ParseSpeakerLabel extracts N from "Speaker N".
func ParseSpeakerLabel(label string) (int, bool) {
	fields := strings.Fields(label)
	if len(fields) != 2 || fields[0] != "Speaker" {
		return 0, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// HistoryEntry is one element of the rolling conversation history.
type HistoryEntry struct {
	Speaker string `json:"speaker"`
	Content string `json:"content"`
}

// Digest is a written summary of recent items, used as a script's main content.
type Digest struct {
	ID        string    `json:"id"`
	RunID     string    `json:"run_id"`
	Content   string    `json:"content"`
	Sources   []string  `json:"sources,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Run status values.
const (
	RunStarted  = "started"
	RunComplete = "complete"
	RunFailed   = "failed"
)

// Run records the progress of one pipeline execution.
type Run struct {
	ID          string     `json:"id"`
	Stage       string     `json:"stage"`
	Status      string     `json:"status"`
	EpisodePath string     `json:"episode_path,omitempty"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}
