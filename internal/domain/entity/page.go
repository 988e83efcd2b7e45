package entity

import "time"

// Snapshot is the page state captured when a scenario aborts.
type Snapshot struct {
	URL        string
	DOM        string
	Screenshot []byte
	Format     string
	Width      int
	Height     int
	CapturedAt time.Time
}
