package transform

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Event is one gesture event. The set is closed: DragChanged, DragEnded,
// PinchChanged, PinchEnded and InteractionEnded.
type Event interface {
	isEvent()
	Name() string
}

// DragChanged carries the cumulative drag offset since the drag began
type DragChanged struct {
	DX, DY float64
}

// DragEnded marks the release of a drag
type DragEnded struct{}

// PinchChanged carries the cumulative magnification since the pinch began;
// 1.0 means unchanged.
type PinchChanged struct {
	Magnification float64
}

// PinchEnded marks the release of a pinch
type PinchEnded struct{}

// InteractionEnded fires once every active gesture has been released
type InteractionEnded struct{}

func (DragChanged) isEvent()      {}
func (DragEnded) isEvent()        {}
func (PinchChanged) isEvent()     {}
func (PinchEnded) isEvent()       {}
func (InteractionEnded) isEvent() {}

func (DragChanged) Name() string      { return "drag" }
func (DragEnded) Name() string        { return "drag_end" }
func (PinchChanged) Name() string     { return "pinch" }
func (PinchEnded) Name() string       { return "pinch_end" }
func (InteractionEnded) Name() string { return "end" }

// scriptEvent is the JSON form of an event in a gesture script
type scriptEvent struct {
	Type  string  `json:"type"`
	DX    float64 `json:"dx,omitempty"`
	DY    float64 `json:"dy,omitempty"`
	Scale float64 `json:"scale,omitempty"`
}

// DecodeScript reads a JSON array of gesture events, for example
//
//	[{"type":"drag","dx":40,"dy":0},{"type":"drag_end"},{"type":"end"}]
func DecodeScript(r io.Reader) ([]Event, error) {
	var raw []scriptEvent
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse gesture script: %w", err)
	}

	events := make([]Event, 0, len(raw))
	for i, se := range raw {
		ev, err := se.event()
		if err != nil {
			return nil, fmt.Errorf("gesture %d: %w", i, err)
		}
		events = append(events, ev)
	}
	return events, nil
}

// EncodeScript writes events in the format DecodeScript reads
func EncodeScript(w io.Writer, events []Event) error {
	raw := make([]scriptEvent, 0, len(events))
	for _, ev := range events {
		se := scriptEvent{Type: ev.Name()}
		switch e := ev.(type) {
		case DragChanged:
			se.DX, se.DY = e.DX, e.DY
		case PinchChanged:
			se.Scale = e.Magnification
		}
		raw = append(raw, se)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(raw)
}

func (se scriptEvent) event() (Event, error) {
	switch strings.ToLower(se.Type) {
	case "drag":
		return DragChanged{DX: se.DX, DY: se.DY}, nil
	case "drag_end":
		return DragEnded{}, nil
	case "pinch":
		return PinchChanged{Magnification: se.Scale}, nil
	case "pinch_end":
		return PinchEnded{}, nil
	case "end":
		return InteractionEnded{}, nil
	default:
		return nil, fmt.Errorf("unknown gesture type %q", se.Type)
	}
}
