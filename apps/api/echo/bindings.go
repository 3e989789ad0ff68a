package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/tutorboard/core"
	"github.com/trezcool/tutorboard/core/whiteboard"
)

const (
	orderingParam = "ordering"
	stepParam     = "step"
	userParam     = "user"
	passedParam   = "passed"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads "?ordering=-score,created_at". Fields outside of `allowed` are ignored.
func (ord *Ordering) Bind(ctx echo.Context, allowed map[string]bool) {
	if val := ctx.QueryParam(orderingParam); val != "" {
		ord.Orderings = core.ParseOrdering(val, allowed)
	}
}

// bindAttemptFilter reads the attempts filter off the path & query params.
// An unparsable "passed" value is reported as a validation error.
func bindAttemptFilter(ctx echo.Context) (*whiteboard.QueryFilter, error) {
	filter := &whiteboard.QueryFilter{
		SessionID: ctx.Param("sessionID"),
		StepID:    ctx.QueryParam(stepParam),
		UserID:    ctx.QueryParam(userParam),
	}
	if val := ctx.QueryParam(passedParam); val != "" {
		passed, err := strconv.ParseBool(val)
		if err != nil {
			return nil, core.NewValidationError(nil, core.FieldError{Field: passedParam, Error: "must be a boolean"})
		}
		filter.Passed = &passed
	}
	filter.Clean()
	return filter, nil
}
