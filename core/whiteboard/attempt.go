package whiteboard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tutorboard/core"
)

var (
	// errors
	ErrNotFound = errors.New("attempt not found")

	// OrderableFields are the attempt fields results may be ordered by.
	OrderableFields = map[string]bool{
		"created_at":     true,
		"attempt_number": true,
		"score":          true,
		"elapsed_ms":     true,
	}
)

type (
	// Attempt is an immutable record of one scored submission. Attempts are never updated nor deleted.
	Attempt struct {
		ID                string          `json:"id"`
		SessionID         string          `json:"sessionId"`
		StepID            string          `json:"stepId"`
		AttemptNumber     int             `json:"attemptNumber"`
		SubmittedCommands json.RawMessage `json:"submittedCommands"`
		Score             float64         `json:"score"`
		Passed            bool            `json:"passed"`
		Feedback          string          `json:"feedback"`
		FailedChecks      []string        `json:"failedChecks"`
		ElapsedMs         int64           `json:"elapsedMs"`
		UserID            string          `json:"userId,omitempty"`
		CreatedAt         time.Time       `json:"createdAt"` // UTC
	}

	// Submission is a student's canvas for a lesson step, with the metadata of the enclosing session.
	Submission struct {
		SessionID     string          `json:"sessionId" validate:"required,notblank,max=128"`
		StepID        string          `json:"stepId" validate:"required,notblank,max=128"`
		AttemptNumber int             `json:"attemptNumber" validate:"required,min=1"`
		ElapsedMs     int64           `json:"elapsedMs" validate:"gte=0"`
		UserID        string          `json:"userId" validate:"omitempty,max=128"`
		Commands      json.RawMessage `json:"commands"`
		Spec          Spec            `json:"spec"`
		CanvasWidth   float64         `json:"canvasWidth" validate:"omitempty,gt=0,lte=10000"`
		CanvasHeight  float64         `json:"canvasHeight" validate:"omitempty,gt=0,lte=10000"`
	}

	QueryFilter struct {
		SessionID string
		StepID    string
		UserID    string
		Passed    *bool
	}

	Repository interface {
		CreateAttempt(ctx context.Context, att Attempt) (Attempt, error)
		// QueryAttempts applies AND on the set QueryFilter fields. Orderings on fields outside of
		// OrderableFields are ignored. Default ordering is by creation time, oldest first.
		QueryAttempts(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Attempt, error)
		GetAttempt(ctx context.Context, id string) (Attempt, error)
	}
)

func (sub *Submission) Validate(validate *validator.Validate) error {
	sub.SessionID = core.CleanString(sub.SessionID)
	sub.StepID = core.CleanString(sub.StepID)
	sub.UserID = core.CleanString(sub.UserID)
	return validate.Struct(sub)
}

// Canvas returns the submission's canvas, fallback to `def` for unset dimensions.
func (sub Submission) Canvas(def Canvas) Canvas {
	c := Canvas{Width: sub.CanvasWidth, Height: sub.CanvasHeight}
	if c.Width <= 0 {
		c.Width = def.Width
	}
	if c.Height <= 0 {
		c.Height = def.Height
	}
	return c.orDefault()
}

func (qf *QueryFilter) Clean() {
	qf.SessionID = core.CleanString(qf.SessionID)
	qf.StepID = core.CleanString(qf.StepID)
	qf.UserID = core.CleanString(qf.UserID)
}

// Match reports whether att satisfies all the set filter fields.
func (qf *QueryFilter) Match(att Attempt) bool {
	if qf == nil {
		return true
	}
	return (qf.SessionID == "" || att.SessionID == qf.SessionID) &&
		(qf.StepID == "" || att.StepID == qf.StepID) &&
		(qf.UserID == "" || att.UserID == qf.UserID) &&
		(qf.Passed == nil || att.Passed == *qf.Passed)
}
