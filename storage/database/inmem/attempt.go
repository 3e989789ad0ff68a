package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/tutorboard/core"
	"github.com/trezcool/tutorboard/core/whiteboard"
)

var errDuplicateID = errors.New("duplicate attempt id")

type attemptRepository struct {
	db *attemptTable
}

var _ whiteboard.Repository = (*attemptRepository)(nil) // interface compliance check

func NewAttemptRepository(db *DB) whiteboard.Repository {
	return &attemptRepository{db: db.attempt}
}

func (repo *attemptRepository) CreateAttempt(ctx context.Context, att whiteboard.Attempt) (whiteboard.Attempt, error) {
	if err := ctx.Err(); err != nil {
		return whiteboard.Attempt{}, errors.Wrap(err, "inserting attempt")
	}

	repo.db.Lock()
	defer repo.db.Unlock()

	if att.ID == "" {
		att.ID = uuid.New().String()
	}
	if _, exists := repo.db.table[att.ID]; exists {
		return whiteboard.Attempt{}, errors.Wrap(errDuplicateID, "inserting attempt")
	}
	att.FailedChecks = append([]string{}, att.FailedChecks...)
	repo.db.table[att.ID] = &att
	repo.db.order = append(repo.db.order, att.ID)
	return att, nil
}

func (repo *attemptRepository) QueryAttempts(ctx context.Context, filter *whiteboard.QueryFilter, ordering []core.DBOrdering) ([]whiteboard.Attempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "querying attempts")
	}

	repo.db.RLock()
	defer repo.db.RUnlock()

	attempts := make([]whiteboard.Attempt, 0, len(repo.db.order))
	for _, id := range repo.db.order {
		if att := *repo.db.table[id]; filter.Match(att) {
			attempts = append(attempts, att)
		}
	}

	sort.SliceStable(attempts, func(i, j int) bool {
		for _, ord := range ordering {
			if !whiteboard.OrderableFields[ord.Field] {
				continue
			}
			if c := compare(attempts[i], attempts[j], ord.Field); c != 0 {
				if ord.Ascending {
					return c < 0
				}
				return c > 0
			}
		}
		return false
	})
	return attempts, nil
}

func (repo *attemptRepository) GetAttempt(ctx context.Context, id string) (whiteboard.Attempt, error) {
	if err := ctx.Err(); err != nil {
		return whiteboard.Attempt{}, errors.Wrap(err, "finding attempt")
	}

	repo.db.RLock()
	defer repo.db.RUnlock()

	if att, ok := repo.db.table[id]; ok {
		return *att, nil
	}
	return whiteboard.Attempt{}, whiteboard.ErrNotFound
}

// compare returns -1, 0 or 1 comparing a and b on an orderable field.
func compare(a, b whiteboard.Attempt, field string) int {
	var x, y float64
	switch field {
	case "created_at":
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		default:
			return 0
		}
	case "attempt_number":
		x, y = float64(a.AttemptNumber), float64(b.AttemptNumber)
	case "score":
		x, y = a.Score, b.Score
	case "elapsed_ms":
		x, y = float64(a.ElapsedMs), float64(b.ElapsedMs)
	}
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}
