// Package schema validates activities against the per-operation shapes
// the bridge accepts. Validation happens at the boundary so the rest of
// the code can operate on a known-good envelope.
package schema

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/broidkit/skype-bridge/internal/activity"
)

// Operations the validator knows about.
const (
	OperationCreate = "create"
	OperationSend   = "send"
)

// ValidationError reports an activity that does not conform to the
// requested operation's shape. It is surfaced to the caller verbatim;
// the bridge never retries a validation failure.
type ValidationError struct {
	Operation string
	Reason    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %s", e.Operation, e.Reason)
}

// Validator accepts a candidate activity and an operation name.
type Validator interface {
	Validate(a *activity.Activity, operation string) error
}

// ActivityValidator validates activities with tag-level field rules plus
// explicit per-operation checks.
type ActivityValidator struct {
	validate *validator.Validate
}

// New creates an activity validator.
func New() *ActivityValidator {
	return &ActivityValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Validate checks the activity against the named operation.
func (v *ActivityValidator) Validate(a *activity.Activity, operation string) error {
	switch operation {
	case OperationSend:
		return v.validateSend(a)
	case OperationCreate:
		return v.validateCreate(a)
	default:
		return &ValidationError{Operation: operation, Reason: "unknown operation"}
	}
}

func (v *ActivityValidator) validateSend(a *activity.Activity) error {
	fail := func(reason string) error {
		return &ValidationError{Operation: OperationSend, Reason: reason}
	}

	if a == nil {
		return fail("activity is required")
	}
	if a.To == nil || (a.To.ID == "" && a.To.Name == "") {
		return fail("to.id or to.name is required")
	}
	if a.Object == nil {
		return fail("object is required")
	}
	if a.Object.Type == "" {
		return fail("object.type is required")
	}
	if a.Object.Content == "" {
		return fail("object.content is required")
	}

	// Media objects must carry a resolvable URL.
	if a.Object.Type == activity.ObjectTypeImage || a.Object.Type == activity.ObjectTypeVideo {
		if err := v.validate.Var(a.Object.URL, "required,url"); err != nil {
			return fail(fmt.Sprintf("object.url must be a valid URL for %s objects", a.Object.Type))
		}
	}

	for i, att := range a.Object.Attachment {
		if att.Type != activity.AttachmentTypeButton {
			continue
		}
		if att.URL == "" {
			return fail(fmt.Sprintf("attachment[%d].url is required for Button entries", i))
		}
	}

	return nil
}

func (v *ActivityValidator) validateCreate(a *activity.Activity) error {
	fail := func(reason string) error {
		return &ValidationError{Operation: OperationCreate, Reason: reason}
	}

	if a == nil {
		return fail("activity is required")
	}
	if a.Context != activity.Context {
		return fail("@context must be the activitystreams namespace")
	}
	if a.Type != activity.TypeCreate {
		return fail("type must be Create")
	}
	if a.Published <= 0 {
		return fail("published timestamp is required")
	}
	if a.Actor == nil {
		return fail("actor is required")
	}
	if a.Object == nil || a.Object.Type == "" {
		return fail("object.type is required")
	}

	return nil
}
