package whiteboard

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/tutorboard/core"
)

// NewServiceMock returns a Service that records attempts synchronously, before Submit returns.
// nowFunc is optional and fixes attempts creation time.
func NewServiceMock(repo Repository, logger core.Logger, conf *core.Config, validate *validator.Validate, nowFunc ...func() time.Time) Service {
	svc := newService(repo, logger, conf, validate)
	svc.detached = false
	if len(nowFunc) > 0 {
		svc.nowFunc = nowFunc[0]
	}
	return svc
}
