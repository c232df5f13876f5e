// Package sse broadcasts activity events to browsers over Server-Sent Events.
package sse

import (
	"time"

	"github.com/google/uuid"

	"github.com/zarko379/iMangarr-ng/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventEntryAdded is sent after a manga is added to the library.
	EventEntryAdded EventType = "library.entry_added"
	// EventLibraryReloaded is sent when the library was reloaded from storage.
	EventLibraryReloaded EventType = "library.reloaded"
	// EventSettingsUpdated is sent after setup is saved or the settings file changes.
	EventSettingsUpdated EventType = "settings.updated"
	// EventHeartbeat keeps idle connections open.
	EventHeartbeat EventType = "heartbeat"
)

// Event is one message sent to clients.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// Describe returns a one-line human summary for the activity feed.
func (e Event) Describe() string {
	switch d := e.Data.(type) {
	case EntryAddedEventData:
		return "Added " + d.Entry.Title + " to the library"
	case LibraryReloadedEventData:
		return "Library reloaded from " + d.Source
	case SettingsUpdatedEventData:
		return "Settings updated, root path " + d.Settings.RootPath
	default:
		return string(e.Type)
	}
}

// EntryAddedEventData is the payload of library.entry_added.
type EntryAddedEventData struct {
	Entry domain.Entry `json:"entry"`
}

// LibraryReloadedEventData is the payload of library.reloaded.
type LibraryReloadedEventData struct {
	Source  string `json:"source"`
	Entries int    `json:"entries"`
}

// SettingsUpdatedEventData is the payload of settings.updated.
type SettingsUpdatedEventData struct {
	Settings domain.Settings `json:"settings"`
}

// HeartbeatEventData is the payload of heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

func newEvent(t EventType, data any) Event {
	return Event{
		ID:        newEventID(),
		Type:      t,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// newEventID returns a time-ordered UUIDv7 so clients can resume with Last-Event-ID.
func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewEntryAddedEvent creates a library.entry_added event.
func NewEntryAddedEvent(entry domain.Entry) Event {
	return newEvent(EventEntryAdded, EntryAddedEventData{Entry: entry})
}

// NewLibraryReloadedEvent creates a library.reloaded event.
func NewLibraryReloadedEvent(source string, entries int) Event {
	return newEvent(EventLibraryReloaded, LibraryReloadedEventData{Source: source, Entries: entries})
}

// NewSettingsUpdatedEvent creates a settings.updated event.
func NewSettingsUpdatedEvent(settings domain.Settings) Event {
	return newEvent(EventSettingsUpdated, SettingsUpdatedEventData{Settings: settings})
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		ID:        newEventID(),
		Type:      EventHeartbeat,
		Timestamp: now,
		Data:      HeartbeatEventData{ServerTime: now},
	}
}
