package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tutorboard/core"
	"github.com/trezcool/tutorboard/core/whiteboard"
	"github.com/trezcool/tutorboard/tests"
)

func TestAttemptRepository_CreateAttempt(t *testing.T) {
	repo := NewAttemptRepository(Open())
	ctx := context.Background()

	att, err := repo.CreateAttempt(ctx, whiteboard.Attempt{SessionID: "s1", StepID: "st1", AttemptNumber: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, att.ID)

	_, err = repo.CreateAttempt(ctx, att)
	assert.Error(t, err, "duplicate IDs must be rejected")

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = repo.CreateAttempt(canceled, whiteboard.Attempt{SessionID: "s1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAttemptRepository_GetAttempt(t *testing.T) {
	repo := NewAttemptRepository(Open())
	att := testutil.CreateAttempt(t, repo, "s1", "st1", 1, 0.5, false)

	got, err := repo.GetAttempt(context.Background(), att.ID)
	require.NoError(t, err)
	assert.Equal(t, att, got)

	_, err = repo.GetAttempt(context.Background(), "8a0c7bb3-79d8-4b0d-a5a2-6dd5dd9b8d4e")
	assert.Equal(t, whiteboard.ErrNotFound, err)
}

func TestAttemptRepository_QueryAttempts(t *testing.T) {
	repo := NewAttemptRepository(Open())

	now := time.Now()
	a1 := testutil.CreateAttempt(t, repo, "s1", "st1", 1, 0.2, false, now)
	a2 := testutil.CreateAttempt(t, repo, "s1", "st1", 2, 0.9, true, now.Add(time.Minute))
	a3 := testutil.CreateAttempt(t, repo, "s1", "st2", 1, 0.5, false, now.Add(2*time.Minute))
	a4 := testutil.CreateAttempt(t, repo, "s2", "st1", 1, 1, true, now.Add(3*time.Minute))

	bPtr := func(b bool) *bool { return &b }

	tests := []struct {
		name     string
		filter   *whiteboard.QueryFilter
		ordering []core.DBOrdering
		want     []whiteboard.Attempt
	}{
		{name: "no filter", want: []whiteboard.Attempt{a1, a2, a3, a4}},
		{name: "by session", filter: &whiteboard.QueryFilter{SessionID: "s1"}, want: []whiteboard.Attempt{a1, a2, a3}},
		{name: "by session & step", filter: &whiteboard.QueryFilter{SessionID: "s1", StepID: "st1"}, want: []whiteboard.Attempt{a1, a2}},
		{name: "passed", filter: &whiteboard.QueryFilter{Passed: bPtr(true)}, want: []whiteboard.Attempt{a2, a4}},
		{name: "failed", filter: &whiteboard.QueryFilter{SessionID: "s1", Passed: bPtr(false)}, want: []whiteboard.Attempt{a1, a3}},
		{name: "unknown session", filter: &whiteboard.QueryFilter{SessionID: "lol"}, want: []whiteboard.Attempt{}},
		{
			name:     "score descending",
			ordering: []core.DBOrdering{{Field: "score"}},
			want:     []whiteboard.Attempt{a4, a2, a3, a1},
		},
		{
			name:     "attempt number then newest",
			ordering: []core.DBOrdering{{Field: "attempt_number", Ascending: true}, {Field: "created_at"}},
			want:     []whiteboard.Attempt{a4, a3, a1, a2},
		},
		{
			name:     "non orderable field is ignored",
			ordering: []core.DBOrdering{{Field: "feedback"}},
			want:     []whiteboard.Attempt{a1, a2, a3, a4},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.QueryAttempts(context.Background(), tt.filter, tt.ordering)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
