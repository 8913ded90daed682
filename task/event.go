// SPDX-License-Identifier: EPL-2.0

package task

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ik5/duckpipe/audio"
	"github.com/ik5/duckpipe/source"
)

// EventType is the kind of a lifecycle event emitted by a stage.
type EventType int

const (
	EventStarting EventType = iota
	EventStarted
	EventRunning
	EventIdle
	EventStopping
	EventStopped
	EventWarning
)

func (t EventType) String() string {
	switch t {
	case EventStarting:
		return "STARTING"
	case EventStarted:
		return "STARTED"
	case EventRunning:
		return "RUNNING"
	case EventIdle:
		return "IDLE"
	case EventStopping:
		return "STOPPING"
	case EventStopped:
		return "STOPPED"
	case EventWarning:
		return "WARNING"
	}

	return fmt.Sprintf("EventType(%d)", int(t))
}

// Event is emitted by a stage to its controller. STARTED events carry the
// detected container and, once decoded, the StreamInfo. WARNING events
// carry Err.
type Event struct {
	Type    EventType
	Stage   string
	Session uuid.UUID

	Container audio.ContainerType
	Info      audio.StreamInfo
	HasInfo   bool

	Err error
}

func (e Event) String() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Stage, e.Type, e.Err)
	case e.HasInfo:
		return fmt.Sprintf("%s %s (%s)", e.Stage, e.Type, e.Info)
	case e.Container != audio.ContainerNone:
		return fmt.Sprintf("%s %s (%s)", e.Stage, e.Type, e.Container)
	}

	return fmt.Sprintf("%s %s", e.Stage, e.Type)
}

// CommandType is the kind of a command sent to a stage.
type CommandType int

const (
	CommandStart CommandType = iota
	CommandStop
	CommandStopGracefully
	CommandDuck
	CommandPauseMedia
	CommandResumeMedia
	CommandClearMedia
	CommandClearAnnouncement
)

func (t CommandType) String() string {
	switch t {
	case CommandStart:
		return "START"
	case CommandStop:
		return "STOP"
	case CommandStopGracefully:
		return "STOP_GRACEFULLY"
	case CommandDuck:
		return "DUCK"
	case CommandPauseMedia:
		return "PAUSE_MEDIA"
	case CommandResumeMedia:
		return "RESUME_MEDIA"
	case CommandClearMedia:
		return "CLEAR_MEDIA"
	case CommandClearAnnouncement:
		return "CLEAR_ANNOUNCEMENT"
	}

	return fmt.Sprintf("CommandType(%d)", int(t))
}

// Command is sent to exactly one stage. Which fields are meaningful
// depends on Type:
//
//	START  Session, Source (reader), Container (decoder), Info (resampler)
//	DUCK   Ratio, FadeSamples
type Command struct {
	Type    CommandType
	Session uuid.UUID

	Source    source.Descriptor
	Container audio.ContainerType
	Info      audio.StreamInfo

	Ratio       float64
	FadeSamples int
}

// Start returns a START command for a new session.
func Start(session uuid.UUID) Command {
	return Command{Type: CommandStart, Session: session}
}

// Stop returns an immediate STOP command.
func Stop() Command { return Command{Type: CommandStop} }

// StopGracefully returns a STOP_GRACEFULLY command.
func StopGracefully() Command { return Command{Type: CommandStopGracefully} }

// Duck returns a DUCK command fading media to ratio over fadeSamples
// interleaved samples.
func Duck(ratio float64, fadeSamples int) Command {
	return Command{Type: CommandDuck, Ratio: ratio, FadeSamples: fadeSamples}
}
