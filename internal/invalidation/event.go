// Package invalidation defines the place-change events that purge cached
// Flickr results.
package invalidation

import (
	"fmt"
	"strings"
	"time"
)

const (
	OpUpdate = "update"
	OpDelete = "delete"
)

// Event reports that a gazetteer place changed. Seq is a per-place
// sequence number; zero means unordered.
type Event struct {
	Version int       `json:"version"`
	Op      string    `json:"op"`
	PlaceID string    `json:"place_id"`
	TS      time.Time `json:"ts"`
	Seq     uint64    `json:"seq,omitempty"`
	Source  string    `json:"source,omitempty"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	switch e.Op {
	case OpUpdate, OpDelete:
	default:
		return fmt.Errorf("op must be update|delete")
	}
	id := strings.TrimSpace(e.PlaceID)
	if id == "" {
		return fmt.Errorf("place_id is required")
	}
	if id == "*" {
		return fmt.Errorf("place_id must name a place")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	return nil
}
