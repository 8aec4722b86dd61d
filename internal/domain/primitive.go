package domain

import (
	"encoding/json"
	"fmt"
)

type PrimitiveType string

const (
	PrimitiveHeading            PrimitiveType = "heading"
	PrimitiveText               PrimitiveType = "text"
	PrimitiveImage              PrimitiveType = "image"
	PrimitiveButton             PrimitiveType = "button"
	PrimitiveSeparator          PrimitiveType = "separator"
	PrimitiveYouTube            PrimitiveType = "youtube"
	PrimitiveTimer              PrimitiveType = "timer"
	PrimitiveEmoji              PrimitiveType = "emoji"
	PrimitiveRating             PrimitiveType = "rating"
	PrimitiveSwitch             PrimitiveType = "switch"
	PrimitiveShapes             PrimitiveType = "shapes"
	PrimitiveGif                PrimitiveType = "gif"
	PrimitiveEmojiInteractive   PrimitiveType = "emoji-interactive"
	PrimitiveHeadingInteractive PrimitiveType = "heading-interactive"
)

// StaticTypes lists the primitive types allowed inside a column.
var StaticTypes = []PrimitiveType{
	PrimitiveHeading, PrimitiveText, PrimitiveImage, PrimitiveButton,
	PrimitiveSeparator, PrimitiveYouTube, PrimitiveTimer, PrimitiveEmoji,
	PrimitiveRating, PrimitiveSwitch, PrimitiveShapes, PrimitiveGif,
}

// InteractiveTypes lists the primitive types allowed inside a wrapper.
var InteractiveTypes = []PrimitiveType{PrimitiveEmojiInteractive, PrimitiveHeadingInteractive}

// IsInteractive reports whether primitives of this type live in wrappers.
func (t PrimitiveType) IsInteractive() bool {
	return t == PrimitiveEmojiInteractive || t == PrimitiveHeadingInteractive
}

// Valid reports whether t is one of the known primitive types.
func (t PrimitiveType) Valid() bool {
	return DefaultPayload(t) != nil
}

// Primitive is a leaf content element. Payload's concrete type always
// matches Type.
type Primitive struct {
	ID      string        `json:"id"`
	Type    PrimitiveType `json:"type"`
	Payload Payload       `json:"payload"`
}

func (p *Primitive) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID      string          `json:"id"`
		Type    PrimitiveType   `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	payload, err := DecodePayload(aux.Type, aux.Payload)
	if err != nil {
		return fmt.Errorf("primitive %s: %w", aux.ID, err)
	}
	p.ID = aux.ID
	p.Type = aux.Type
	p.Payload = payload
	return nil
}

// Interactive returns the payload as an InteractivePayload when the
// primitive is an overlay element.
func (p Primitive) Interactive() (InteractivePayload, bool) {
	ip, ok := p.Payload.(InteractivePayload)
	return ip, ok
}
