package playback

import "github.com/osa030/mediaqueue/internal/domain/media"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted EventType = iota // A stream started playing
	EventTrackEnded                    // A stream reached its end
	EventTrackStopped                  // A stream was stopped before its end
	EventStateChanged                  // Playback was paused or resumed
	EventError                         // Copying a stream failed
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventTrackEnded:
		return "track_ended"
	case EventTrackStopped:
		return "track_stopped"
	case EventStateChanged:
		return "state_changed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type     EventType
	QueueID  string
	Media    *media.Media // Media concerned (nil when playing a raw stream)
	Position int          // Queue position of Media
	State    State        // Playback state after the event
	Err      error        // Set for EventError
}
