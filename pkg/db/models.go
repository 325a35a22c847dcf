package db

import "time"

// PoolSummary is one row of session_pools.
type PoolSummary struct {
	ID           string
	Experiment   string
	Language     string
	WordsPerList int
	NumLists     int
	Seed         string
	CreatedAt    time.Time
}

// Upload records one transfer attempt.
type Upload struct {
	ID         int64
	Subject    string
	Experiment string
	// Session is -1 for transfers not tied to a session (imaging, clinical).
	Session    int
	Kind       string
	Src        string
	Dest       string
	Success    bool
	Message    string
	StartedAt  time.Time
	FinishedAt time.Time
}
