package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Reason classifies a rejected edit. Rejections are returned as values so
// the interactive edit loop is never interrupted.
type Reason string

const (
	ReasonNameTooLong   Reason = "name_too_long"
	ReasonNameTaken     Reason = "name_taken"
	ReasonNameEmpty     Reason = "name_empty"
	ReasonUnknownField  Reason = "unknown_field"
	ReasonReservedField Reason = "reserved_field"
	ReasonInvalidValue  Reason = "invalid_value"
	ReasonUnknownType   Reason = "unknown_type"
)

// MaxNameLength caps interactive primitive names, counted in runes.
const MaxNameLength = 20

type ValidationError struct {
	Reason  Reason
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message == "" {
		return string(e.Reason)
	}
	return e.Message
}

// Is matches any ValidationError with the same Reason.
func (e *ValidationError) Is(target error) bool {
	var t *ValidationError
	if !errors.As(target, &t) {
		return false
	}
	return t.Reason == e.Reason
}

var (
	ErrNameTooLong   = &ValidationError{Reason: ReasonNameTooLong, Field: "name", Message: fmt.Sprintf("name is too long (max %d characters)", MaxNameLength)}
	ErrNameTaken     = &ValidationError{Reason: ReasonNameTaken, Field: "name", Message: "name is already used by another element"}
	ErrNameEmpty     = &ValidationError{Reason: ReasonNameEmpty, Field: "name", Message: "name cannot be empty"}
	ErrUnknownField  = &ValidationError{Reason: ReasonUnknownField}
	ErrReservedField = &ValidationError{Reason: ReasonReservedField}
	ErrInvalidValue  = &ValidationError{Reason: ReasonInvalidValue}
	ErrUnknownType   = &ValidationError{Reason: ReasonUnknownType}
)

var (
	ErrTemplateNotFound   = errors.New("template not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrCheckpointNotFound = errors.New("checkpoint not found")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidatePayload checks p against its field constraints.
func ValidatePayload(p Payload) error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Reason: ReasonInvalidValue, Message: err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return &ValidationError{
		Reason:  ReasonInvalidValue,
		Field:   verrs[0].Field(),
		Message: strings.Join(msgs, "; "),
	}
}
