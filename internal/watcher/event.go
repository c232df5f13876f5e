package watcher

import "time"

// EventType says what happened to a watched file.
type EventType int

const (
	// EventChanged: the file was created or rewritten and has settled.
	EventChanged EventType = iota
	// EventRemoved: the file was deleted or renamed away.
	EventRemoved
)

var eventTypeNames = [...]string{EventChanged: "changed", EventRemoved: "removed"}

func (t EventType) String() string {
	if t < 0 || int(t) >= len(eventTypeNames) {
		return "unknown"
	}
	return eventTypeNames[t]
}

// Event is a settled change to one file. Size and ModTime are zero for
// EventRemoved.
type Event struct {
	Type    EventType
	Path    string
	Size    int64
	ModTime time.Time
}
