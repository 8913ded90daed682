// SPDX-License-Identifier: EPL-2.0

package player

import (
	"github.com/google/uuid"

	"github.com/ik5/duckpipe/audio"
)

// State is the externally visible playback state.
type State int

const (
	StateIdle State = iota
	StatePlaying
	StatePaused
	StateAnnouncing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StatePlaying:
		return "PLAYING"
	case StatePaused:
		return "PAUSED"
	case StateAnnouncing:
		return "ANNOUNCING"
	default:
		return "UNKNOWN"
	}
}

// Stream describes one of the two pipelines.
type Stream struct {
	Session   uuid.UUID
	Active    bool
	Source    string
	Container audio.ContainerType
	Info      audio.StreamInfo
}

// Status is a snapshot of the player. Snapshots are immutable; a new one
// is published on every change.
type Status struct {
	State        State
	Media        Stream
	Announcement Stream
	Paused       bool
	Volume       float64
	Muted        bool

	// Buffered is the number of mixed or mixer-bound bytes not yet played.
	Buffered int

	// Err is the last terminal stage failure.
	Err error
}

// Drained reports whether nothing is playing and nothing is left to play.
func (s Status) Drained() bool {
	return s.State == StateIdle && s.Buffered == 0
}

func stateOf(media, announcement Stream, paused bool) State {
	switch {
	case announcement.Active:
		return StateAnnouncing
	case media.Active && paused:
		return StatePaused
	case media.Active:
		return StatePlaying
	default:
		return StateIdle
	}
}
