package models

import "time"

// QueueItem is a position-ordered request that a series be processed
// ahead of the bulk catalog traversal. Position is the sole ordering
// key; AddedAt and ID are tie-breakers only.
type QueueItem struct {
	ID        int64
	SeriesID  int64
	SeriesURL string
	Position  int
	AddedAt   time.Time
}
