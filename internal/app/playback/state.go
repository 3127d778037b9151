// Package playback streams queued media into an output with play/pause/stop control.
package playback

// State represents the playback state.
type State int

const (
	StateIdle    State = iota // Nothing is streaming
	StatePlaying              // A stream is being copied to the output
	StatePaused               // A stream is held but not copied
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}
