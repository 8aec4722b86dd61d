package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Payload is the closed set of primitive payloads. Each concrete type is a
// value struct, so a payload stored in a tree is never mutated in place.
type Payload interface {
	PrimitiveType() PrimitiveType
}

// Placement positions an interactive primitive inside its wrapper. X and Y
// are percentages of the wrapper box.
type Placement struct {
	X      float64 `json:"x" validate:"min=0,max=100"`
	Y      float64 `json:"y" validate:"min=0,max=100"`
	Scale  float64 `json:"scale" validate:"gt=0,max=5"`
	Rotate float64 `json:"rotate" validate:"min=-360,max=360"`
}

// InteractivePayload is implemented by the payloads of overlay primitives.
type InteractivePayload interface {
	Payload
	Label() string
	WithLabel(name string) InteractivePayload
	Position() Placement
	WithPosition(p Placement) InteractivePayload
}

type HeadingPayload struct {
	Text       string  `json:"text" validate:"max=500"`
	FontSize   int     `json:"fontSize" validate:"min=8,max=120"`
	FontFamily string  `json:"fontFamily" validate:"required"`
	Color      string  `json:"color" validate:"hexcolor"`
	Align      string  `json:"align" validate:"oneof=left center right"`
	Bold       bool    `json:"bold"`
	Italic     bool    `json:"italic"`
	LineHeight float64 `json:"lineHeight" validate:"min=0.5,max=4"`
}

type TextPayload struct {
	Text       string  `json:"text" validate:"max=10000"`
	FontSize   int     `json:"fontSize" validate:"min=8,max=72"`
	FontFamily string  `json:"fontFamily" validate:"required"`
	Color      string  `json:"color" validate:"hexcolor"`
	Align      string  `json:"align" validate:"oneof=left center right justify"`
	Bold       bool    `json:"bold"`
	Italic     bool    `json:"italic"`
	LineHeight float64 `json:"lineHeight" validate:"min=0.5,max=4"`
}

type ImagePayload struct {
	URL          string  `json:"url" validate:"omitempty,url"`
	Alt          string  `json:"alt"`
	Link         string  `json:"link"`
	Width        float64 `json:"width" validate:"min=10,max=100"`
	Align        string  `json:"align" validate:"oneof=left center right"`
	BorderRadius float64 `json:"borderRadius" validate:"min=0,max=100"`
}

type ButtonPayload struct {
	Label           string  `json:"label" validate:"max=100"`
	URL             string  `json:"url"`
	BackgroundColor string  `json:"backgroundColor" validate:"hexcolor"`
	TextColor       string  `json:"textColor" validate:"hexcolor"`
	FontSize        int     `json:"fontSize" validate:"min=8,max=48"`
	BorderRadius    float64 `json:"borderRadius" validate:"min=0,max=100"`
	PaddingX        int     `json:"paddingX" validate:"min=0,max=100"`
	PaddingY        int     `json:"paddingY" validate:"min=0,max=100"`
	Align           string  `json:"align" validate:"oneof=left center right"`
	FullWidth       bool    `json:"fullWidth"`
}

type SeparatorPayload struct {
	Color     string  `json:"color" validate:"hexcolor"`
	Thickness int     `json:"thickness" validate:"min=1,max=20"`
	Style     string  `json:"style" validate:"oneof=solid dashed dotted"`
	Width     float64 `json:"width" validate:"min=10,max=100"`
	Margin    int     `json:"margin" validate:"min=0,max=200"`
}

type YouTubePayload struct {
	URL          string  `json:"url" validate:"omitempty,url"`
	ThumbnailURL string  `json:"thumbnailUrl" validate:"omitempty,url"`
	Width        float64 `json:"width" validate:"min=10,max=100"`
	Align        string  `json:"align" validate:"oneof=left center right"`
}

type TimerPayload struct {
	EndDate         string `json:"endDate" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	Label           string `json:"label" validate:"max=100"`
	Color           string `json:"color" validate:"hexcolor"`
	BackgroundColor string `json:"backgroundColor" validate:"hexcolor|eq=transparent"`
	FontSize        int    `json:"fontSize" validate:"min=8,max=96"`
	ShowDays        bool   `json:"showDays"`
	ShowSeconds     bool   `json:"showSeconds"`
	Align           string `json:"align" validate:"oneof=left center right"`
}

type EmojiPayload struct {
	Emoji string `json:"emoji" validate:"required"`
	Size  int    `json:"size" validate:"min=12,max=200"`
	Align string `json:"align" validate:"oneof=left center right"`
}

type RatingPayload struct {
	Value int    `json:"value" validate:"min=0,ltefield=Max"`
	Max   int    `json:"max" validate:"min=1,max=10"`
	Icon  string `json:"icon" validate:"oneof=star heart circle"`
	Color string `json:"color" validate:"hexcolor"`
	Size  int    `json:"size" validate:"min=8,max=96"`
	Align string `json:"align" validate:"oneof=left center right"`
}

type SwitchPayload struct {
	Checked  bool   `json:"checked"`
	Label    string `json:"label" validate:"max=100"`
	OnColor  string `json:"onColor" validate:"hexcolor"`
	OffColor string `json:"offColor" validate:"hexcolor"`
	Align    string `json:"align" validate:"oneof=left center right"`
}

type ShapesPayload struct {
	Shape        string  `json:"shape" validate:"oneof=rectangle circle triangle star"`
	Color        string  `json:"color" validate:"hexcolor"`
	Width        int     `json:"width" validate:"min=10,max=600"`
	Height       int     `json:"height" validate:"min=10,max=600"`
	BorderRadius float64 `json:"borderRadius" validate:"min=0,max=300"`
	Align        string  `json:"align" validate:"oneof=left center right"`
}

type GifPayload struct {
	URL   string  `json:"url" validate:"omitempty,url"`
	Alt   string  `json:"alt"`
	Width float64 `json:"width" validate:"min=10,max=100"`
	Align string  `json:"align" validate:"oneof=left center right"`
}

type EmojiInteractivePayload struct {
	Emoji string `json:"emoji" validate:"required"`
	Size  int    `json:"size" validate:"min=12,max=200"`
	Placement
	Name string `json:"name" validate:"required,max=20"`
}

type HeadingInteractivePayload struct {
	Text       string `json:"text" validate:"max=200"`
	FontSize   int    `json:"fontSize" validate:"min=8,max=120"`
	FontFamily string `json:"fontFamily" validate:"required"`
	Color      string `json:"color" validate:"hexcolor"`
	Bold       bool   `json:"bold"`
	Placement
	Name string `json:"name" validate:"required,max=20"`
}

func (HeadingPayload) PrimitiveType() PrimitiveType            { return PrimitiveHeading }
func (TextPayload) PrimitiveType() PrimitiveType               { return PrimitiveText }
func (ImagePayload) PrimitiveType() PrimitiveType              { return PrimitiveImage }
func (ButtonPayload) PrimitiveType() PrimitiveType             { return PrimitiveButton }
func (SeparatorPayload) PrimitiveType() PrimitiveType          { return PrimitiveSeparator }
func (YouTubePayload) PrimitiveType() PrimitiveType            { return PrimitiveYouTube }
func (TimerPayload) PrimitiveType() PrimitiveType              { return PrimitiveTimer }
func (EmojiPayload) PrimitiveType() PrimitiveType              { return PrimitiveEmoji }
func (RatingPayload) PrimitiveType() PrimitiveType             { return PrimitiveRating }
func (SwitchPayload) PrimitiveType() PrimitiveType             { return PrimitiveSwitch }
func (ShapesPayload) PrimitiveType() PrimitiveType             { return PrimitiveShapes }
func (GifPayload) PrimitiveType() PrimitiveType                { return PrimitiveGif }
func (EmojiInteractivePayload) PrimitiveType() PrimitiveType   { return PrimitiveEmojiInteractive }
func (HeadingInteractivePayload) PrimitiveType() PrimitiveType { return PrimitiveHeadingInteractive }

func (p EmojiInteractivePayload) Label() string         { return p.Name }
func (p EmojiInteractivePayload) Position() Placement   { return p.Placement }
func (p HeadingInteractivePayload) Label() string       { return p.Name }
func (p HeadingInteractivePayload) Position() Placement { return p.Placement }

func (p EmojiInteractivePayload) WithLabel(name string) InteractivePayload {
	p.Name = name
	return p
}

func (p EmojiInteractivePayload) WithPosition(pl Placement) InteractivePayload {
	p.Placement = pl
	return p
}

func (p HeadingInteractivePayload) WithLabel(name string) InteractivePayload {
	p.Name = name
	return p
}

func (p HeadingInteractivePayload) WithPosition(pl Placement) InteractivePayload {
	p.Placement = pl
	return p
}

// timerDefaultSpan is how far in the future a new countdown ends.
const timerDefaultSpan = 7 * 24 * time.Hour

var now = time.Now

// DefaultPayload returns the fully populated factory payload for t, or nil
// if t is not a known primitive type.
func DefaultPayload(t PrimitiveType) Payload {
	switch t {
	case PrimitiveHeading:
		return HeadingPayload{Text: "Heading", FontSize: 32, FontFamily: "Arial, sans-serif", Color: "#111827", Align: "center", Bold: true, LineHeight: 1.2}
	case PrimitiveText:
		return TextPayload{Text: "Write something here...", FontSize: 16, FontFamily: "Arial, sans-serif", Color: "#374151", Align: "left", LineHeight: 1.5}
	case PrimitiveImage:
		return ImagePayload{URL: "https://placehold.co/600x300", Alt: "Image", Width: 100, Align: "center"}
	case PrimitiveButton:
		return ButtonPayload{Label: "Click me", URL: "#", BackgroundColor: "#2563EB", TextColor: "#FFFFFF", FontSize: 16, BorderRadius: 6, PaddingX: 24, PaddingY: 12, Align: "center"}
	case PrimitiveSeparator:
		return SeparatorPayload{Color: "#E5E7EB", Thickness: 1, Style: "solid", Width: 100, Margin: 16}
	case PrimitiveYouTube:
		return YouTubePayload{Width: 100, Align: "center"}
	case PrimitiveTimer:
		return TimerPayload{
			EndDate:         now().Add(timerDefaultSpan).UTC().Truncate(time.Second).Format(time.RFC3339),
			Label:           "Offer ends in",
			Color:           "#111827",
			BackgroundColor: "transparent",
			FontSize:        32,
			ShowDays:        true,
			ShowSeconds:     true,
			Align:           "center",
		}
	case PrimitiveEmoji:
		return EmojiPayload{Emoji: "😀", Size: 48, Align: "center"}
	case PrimitiveRating:
		return RatingPayload{Value: 4, Max: 5, Icon: "star", Color: "#F59E0B", Size: 24, Align: "center"}
	case PrimitiveSwitch:
		return SwitchPayload{Label: "Toggle", OnColor: "#10B981", OffColor: "#D1D5DB", Align: "center"}
	case PrimitiveShapes:
		return ShapesPayload{Shape: "rectangle", Color: "#3B82F6", Width: 100, Height: 100, Align: "center"}
	case PrimitiveGif:
		return GifPayload{URL: "https://media.giphy.com/media/3o7aD2saalBwwftBIY/giphy.gif", Alt: "GIF", Width: 100, Align: "center"}
	case PrimitiveEmojiInteractive:
		return EmojiInteractivePayload{Emoji: "🎉", Size: 48, Placement: Placement{X: 50, Y: 50, Scale: 1}, Name: "Emoji"}
	case PrimitiveHeadingInteractive:
		return HeadingInteractivePayload{Text: "Heading", FontSize: 32, FontFamily: "Arial, sans-serif", Color: "#111827", Bold: true, Placement: Placement{X: 50, Y: 50, Scale: 1}, Name: "Heading"}
	}
	return nil
}

// DecodePayload decodes raw on top of the default payload for t, so fields
// missing from raw keep their factory values.
func DecodePayload(t PrimitiveType, raw []byte) (Payload, error) {
	base := DefaultPayload(t)
	if base == nil {
		return nil, &ValidationError{Reason: ReasonUnknownType, Field: "type", Message: "unknown primitive type " + string(t)}
	}
	if len(raw) == 0 || string(raw) == "null" {
		return base, nil
	}
	return decodeOnto(base, raw, false)
}

func decodeOnto(base Payload, raw []byte, strict bool) (Payload, error) {
	switch b := base.(type) {
	case HeadingPayload:
		return decodeInto(b, raw, strict)
	case TextPayload:
		return decodeInto(b, raw, strict)
	case ImagePayload:
		return decodeInto(b, raw, strict)
	case ButtonPayload:
		return decodeInto(b, raw, strict)
	case SeparatorPayload:
		return decodeInto(b, raw, strict)
	case YouTubePayload:
		return decodeInto(b, raw, strict)
	case TimerPayload:
		return decodeInto(b, raw, strict)
	case EmojiPayload:
		return decodeInto(b, raw, strict)
	case RatingPayload:
		return decodeInto(b, raw, strict)
	case SwitchPayload:
		return decodeInto(b, raw, strict)
	case ShapesPayload:
		return decodeInto(b, raw, strict)
	case GifPayload:
		return decodeInto(b, raw, strict)
	case EmojiInteractivePayload:
		return decodeInto(b, raw, strict)
	case HeadingInteractivePayload:
		return decodeInto(b, raw, strict)
	}
	return nil, &ValidationError{Reason: ReasonUnknownType, Field: "type", Message: "unsupported payload"}
}

func decodeInto[P Payload](base P, raw []byte, strict bool) (Payload, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if strict {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(&base); err != nil {
		return nil, err
	}
	return base, nil
}

// SetPayloadField returns a copy of p with the JSON field key replaced by
// value. The result is validated; p itself is never modified.
func SetPayloadField(p Payload, key string, value any) (Payload, error) {
	fields, err := payloadFields(p)
	if err != nil {
		return p, err
	}
	if _, ok := fields[key]; !ok {
		return p, &ValidationError{Reason: ReasonUnknownField, Field: key, Message: "no field " + key + " on " + string(p.PrimitiveType())}
	}
	if _, ok := p.(InteractivePayload); ok && key == "name" {
		return p, &ValidationError{Reason: ReasonReservedField, Field: key, Message: "use rename to change the name"}
	}

	raw, err := json.Marshal(map[string]any{key: value})
	if err != nil {
		return p, &ValidationError{Reason: ReasonInvalidValue, Field: key, Message: err.Error()}
	}
	next, err := decodeOnto(p, raw, true)
	if err != nil {
		return p, &ValidationError{Reason: ReasonInvalidValue, Field: key, Message: err.Error()}
	}
	if err := ValidatePayload(next); err != nil {
		return p, err
	}
	return next, nil
}

// PayloadFields lists the JSON field names of p, including flattened
// placement fields.
func PayloadFields(p Payload) []string {
	fields, err := payloadFields(p)
	if err != nil {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	return keys
}

func payloadFields(p Payload) (map[string]json.RawMessage, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
