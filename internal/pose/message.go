package pose

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// InvalidFormatMessage is the error text returned to clients for messages
// that cannot be parsed as a pose sample.
const InvalidFormatMessage = "Invalid pose data format"

// ErrInvalidFormat is returned by ParseMessage for malformed input.
var ErrInvalidFormat = errors.New("invalid pose data format")

// inboundMessage mirrors the wire shape. Pointers distinguish absent fields
// from zero values.
type inboundMessage struct {
	PoseLandmarks map[string]*inboundLandmark `json:"pose_landmarks"`
	Exercise      *string                     `json:"exercise"`
}

type inboundLandmark struct {
	X          *float64 `json:"x"`
	Y          *float64 `json:"y"`
	Z          *float64 `json:"z"`
	Visibility *float64 `json:"visibility"`
}

// Result is the outbound status message for a processed sample.
type Result struct {
	ActiveExercise string         `json:"active_exercise"`
	RepCounts      map[string]int `json:"rep_counts"`
	Feedback       string         `json:"feedback_message"`
}

// ErrorMessage is the outbound message for rejected input.
type ErrorMessage struct {
	Error string `json:"error"`
}

// ParseMessage decodes one inbound websocket payload into a Sample.
// The payload must be a JSON object. A missing or null pose_landmarks field
// yields an idle sample. Each landmark needs numeric x, y and a visibility in
// [0, 1]; z is optional.
func ParseMessage(data []byte) (Sample, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Sample{}, ErrInvalidFormat
	}

	var msg inboundMessage
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		return Sample{}, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	var sample Sample
	if msg.Exercise != nil {
		sample.Exercise = *msg.Exercise
	}

	if msg.PoseLandmarks == nil {
		return sample, nil
	}

	sample.Landmarks = make(Landmarks, len(msg.PoseLandmarks))
	for name, lm := range msg.PoseLandmarks {
		if lm == nil || lm.X == nil || lm.Y == nil || lm.Visibility == nil {
			return Sample{}, fmt.Errorf("%w: landmark %q is incomplete", ErrInvalidFormat, name)
		}
		if *lm.Visibility < 0 || *lm.Visibility > 1 {
			return Sample{}, fmt.Errorf("%w: landmark %q visibility out of range", ErrInvalidFormat, name)
		}

		parsed := Landmark{X: *lm.X, Y: *lm.Y, Visibility: *lm.Visibility}
		if lm.Z != nil {
			parsed.Z = *lm.Z
		}
		sample.Landmarks[name] = parsed
	}

	return sample, nil
}

// EncodeResult serializes an outbound status message.
func EncodeResult(r Result) ([]byte, error) {
	if r.RepCounts == nil {
		r.RepCounts = map[string]int{}
	}
	return json.Marshal(r)
}

// EncodeInvalidFormat returns the serialized malformed-input reply.
func EncodeInvalidFormat() []byte {
	data, _ := json.Marshal(ErrorMessage{Error: InvalidFormatMessage})
	return data
}
