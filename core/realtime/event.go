package realtime

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kilianp07/kmrl-dash/core/model"
)

// Event names used on the wire.
const (
	NameConnect         = "connect"
	NameDisconnect      = "disconnect"
	NameScheduleUpdated = "schedule_updated"
	NameLiveUpdate      = "live_update"
	NameStatus          = "status"
)

// ErrUnknownEvent is returned when decoding an event name outside the set.
var ErrUnknownEvent = errors.New("unknown realtime event")

// Handler receives each event kind.
type Handler interface {
	OnConnect(Connected)
	OnDisconnect(Disconnected)
	OnScheduleUpdated(ScheduleUpdated)
	OnLiveUpdate(LiveUpdate)
	OnStatus(StatusMessage)
}

// Event is a decoded inbound message.
type Event interface {
	Name() string
	Dispatch(h Handler)
}

// Connected is emitted once the channel is established.
type Connected struct{}

// Disconnected is emitted when the channel drops.
type Disconnected struct {
	Reason string
}

// ScheduleUpdated replaces the schedule table and the status.
type ScheduleUpdated struct {
	Schedule []model.ScheduleRow `json:"schedule"`
	Status   *model.StatusPatch  `json:"status"`
}

// LiveUpdate merges status fields and refreshes charts.
type LiveUpdate struct {
	SystemStatus *model.StatusPatch `json:"system_status"`
}

// StatusMessage is diagnostic only.
type StatusMessage struct {
	Raw json.RawMessage
}

func (Connected) Name() string       { return NameConnect }
func (Disconnected) Name() string    { return NameDisconnect }
func (ScheduleUpdated) Name() string { return NameScheduleUpdated }
func (LiveUpdate) Name() string      { return NameLiveUpdate }
func (StatusMessage) Name() string   { return NameStatus }

func (e Connected) Dispatch(h Handler)       { h.OnConnect(e) }
func (e Disconnected) Dispatch(h Handler)    { h.OnDisconnect(e) }
func (e ScheduleUpdated) Dispatch(h Handler) { h.OnScheduleUpdated(e) }
func (e LiveUpdate) Dispatch(h Handler)      { h.OnLiveUpdate(e) }
func (e StatusMessage) Dispatch(h Handler)   { h.OnStatus(e) }

// Decode builds the event named name from its JSON payload. An empty payload
// decodes to the zero value of the event.
func Decode(name string, data []byte) (Event, error) {
	empty := len(data) == 0 || string(data) == "null"
	switch name {
	case NameConnect:
		return Connected{}, nil
	case NameDisconnect:
		var reason string
		if !empty {
			_ = json.Unmarshal(data, &reason)
		}
		return Disconnected{Reason: reason}, nil
	case NameScheduleUpdated:
		var ev ScheduleUpdated
		if !empty {
			if err := json.Unmarshal(data, &ev); err != nil {
				return nil, fmt.Errorf("decode %s: %w", name, err)
			}
		}
		return ev, nil
	case NameLiveUpdate:
		var ev LiveUpdate
		if !empty {
			if err := json.Unmarshal(data, &ev); err != nil {
				return nil, fmt.Errorf("decode %s: %w", name, err)
			}
		}
		return ev, nil
	case NameStatus:
		return StatusMessage{Raw: append(json.RawMessage(nil), data...)}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
}
