package whiteboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorboard/core"
)

const defaultPersistTimeout = 5 * time.Second

type (
	Service interface {
		// Sanitize filters an untrusted serialized command array. canvas is optional.
		Sanitize(data []byte, canvas ...Canvas) ([]Command, Report)
		// Submit validates and scores a submission, then records the attempt without waiting for the write:
		// a recording failure is logged and never changes the returned Result.
		Submit(ctx context.Context, sub Submission) (Result, error)
		QueryAttempts(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Attempt, error)
		GetAttempt(ctx context.Context, id string) (Attempt, error)
		// Close waits for in-flight attempt recordings.
		Close()
	}

	service struct {
		repo           Repository
		logger         core.Logger
		validate       *validator.Validate
		sanitizer      Sanitizer
		engine         *Engine
		persistTimeout time.Duration
		detached       bool // record attempts on their own goroutine
		wg             sync.WaitGroup
		nowFunc        func() time.Time // mockable
	}
)

var _ Service = (*service)(nil) // interface compliance check

func newService(repo Repository, logger core.Logger, conf *core.Config, validate *validator.Validate) *service {
	wb := conf.Whiteboard
	svc := &service{
		repo:     repo,
		logger:   logger,
		validate: validate,
		sanitizer: NewSanitizer(SanitizerOptions{
			Canvas:          Canvas{Width: wb.CanvasWidth, Height: wb.CanvasHeight},
			MaxCommands:     wb.MaxCommands,
			MaxPayloadBytes: wb.MaxPayloadBytes,
			ImageHosts:      wb.ImageHosts,
		}),
		engine:         NewEngine(wb.RegexCacheSize),
		persistTimeout: wb.PersistTimeout,
		detached:       true,
		nowFunc:        time.Now,
	}
	if svc.persistTimeout <= 0 {
		svc.persistTimeout = defaultPersistTimeout
	}
	return svc
}

func NewService(repo Repository, logger core.Logger, conf *core.Config, validate *validator.Validate) Service {
	return newService(repo, logger, conf, validate)
}

func (svc *service) sanitizerFor(canvas []Canvas) Sanitizer {
	if len(canvas) > 0 {
		return svc.sanitizer.WithCanvas(canvas[0])
	}
	return svc.sanitizer
}

func (svc *service) Sanitize(data []byte, canvas ...Canvas) ([]Command, Report) {
	return svc.sanitizerFor(canvas).SanitizeJSON(data)
}

func (svc *service) Submit(ctx context.Context, sub Submission) (Result, error) {
	if err := sub.Validate(svc.validate); err != nil {
		return Result{}, err
	}

	canvas := sub.Canvas(svc.sanitizer.Canvas())
	cmds, rep := svc.sanitizer.WithCanvas(canvas).SanitizeJSON(sub.Commands)
	if rep.Dropped > 0 || rep.Truncated > 0 || rep.Oversize || rep.Malformed {
		svc.logger.Debug(
			fmt.Sprintf("submission %s/%s#%d: sanitizer dropped commands", sub.SessionID, sub.StepID, sub.AttemptNumber),
			map[string]interface{}{"report": rep},
		)
	}

	res := svc.engine.Score(cmds, sub.Spec, canvas)

	submitted, err := json.Marshal(cmds)
	if err != nil {
		return Result{}, errors.Wrap(err, "marshalling submitted commands")
	}
	svc.record(Attempt{
		ID:                uuid.New().String(),
		SessionID:         sub.SessionID,
		StepID:            sub.StepID,
		AttemptNumber:     sub.AttemptNumber,
		SubmittedCommands: submitted,
		Score:             res.Score,
		Passed:            res.OK,
		Feedback:          res.FeedbackMessage,
		FailedChecks:      res.FailedChecks,
		ElapsedMs:         sub.ElapsedMs,
		UserID:            sub.UserID,
		CreatedAt:         svc.nowFunc().UTC(),
	})
	return res, nil
}

func (svc *service) record(att Attempt) {
	if !svc.detached {
		svc.persist(att)
		return
	}
	svc.wg.Add(1)
	go func() {
		defer svc.wg.Done()
		svc.persist(att)
	}()
}

// persist writes att with its own deadline: the request that produced it may be gone already.
func (svc *service) persist(att Attempt) {
	ctx, cancel := context.WithTimeout(context.Background(), svc.persistTimeout)
	defer cancel()

	if _, err := svc.repo.CreateAttempt(ctx, att); err != nil {
		msg := fmt.Sprintf("recording attempt %s/%s#%d", att.SessionID, att.StepID, att.AttemptNumber)
		svc.logger.Error(msg, errors.Wrap(err, msg), core.Person{ID: att.UserID})
	}
}

func (svc *service) QueryAttempts(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Attempt, error) {
	return svc.repo.QueryAttempts(ctx, filter, ordering)
}

func (svc *service) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Attempt{}, ErrNotFound
	}
	return svc.repo.GetAttempt(ctx, id)
}

func (svc *service) Close() {
	svc.wg.Wait()
}
