package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/tutorboard/core"
	"github.com/trezcool/tutorboard/core/whiteboard"
)

const (
	attemptTable   = `"attempt"`
	attemptColumns = "id, session_id, step_id, attempt_number, submitted_commands, score, passed, " +
		"feedback, failed_checks, elapsed_ms, user_id, created_at"
	defaultOrdering = "created_at ASC"
)

// attemptRow is the `attempt` table row.
type attemptRow struct {
	ID                string         `db:"id"`
	SessionID         string         `db:"session_id"`
	StepID            string         `db:"step_id"`
	AttemptNumber     int            `db:"attempt_number"`
	SubmittedCommands types.JSONText `db:"submitted_commands"`
	Score             float64        `db:"score"`
	Passed            bool           `db:"passed"`
	Feedback          string         `db:"feedback"`
	FailedChecks      pq.StringArray `db:"failed_checks"`
	ElapsedMs         int64          `db:"elapsed_ms"`
	UserID            null.String    `db:"user_id"`
	CreatedAt         time.Time      `db:"created_at"`
}

type attemptRepository struct {
	db *sqlx.DB
}

var _ whiteboard.Repository = (*attemptRepository)(nil) // interface compliance check

func NewAttemptRepository(db *sqlx.DB) whiteboard.Repository {
	return &attemptRepository{db: db}
}

func (repo attemptRepository) toRow(att whiteboard.Attempt) attemptRow {
	cmds := types.JSONText(att.SubmittedCommands)
	if len(cmds) == 0 {
		cmds = types.JSONText("[]")
	}
	checks := pq.StringArray(att.FailedChecks)
	if checks == nil {
		checks = pq.StringArray{}
	}
	return attemptRow{
		ID:                att.ID,
		SessionID:         att.SessionID,
		StepID:            att.StepID,
		AttemptNumber:     att.AttemptNumber,
		SubmittedCommands: cmds,
		Score:             att.Score,
		Passed:            att.Passed,
		Feedback:          att.Feedback,
		FailedChecks:      checks,
		ElapsedMs:         att.ElapsedMs,
		UserID:            null.NewString(att.UserID, att.UserID != ""),
		CreatedAt:         att.CreatedAt.UTC(),
	}
}

func (repo attemptRepository) fromRow(row attemptRow) whiteboard.Attempt {
	checks := []string(row.FailedChecks)
	if checks == nil {
		checks = []string{}
	}
	return whiteboard.Attempt{
		ID:                row.ID,
		SessionID:         row.SessionID,
		StepID:            row.StepID,
		AttemptNumber:     row.AttemptNumber,
		SubmittedCommands: []byte(row.SubmittedCommands),
		Score:             row.Score,
		Passed:            row.Passed,
		Feedback:          row.Feedback,
		FailedChecks:      checks,
		ElapsedMs:         row.ElapsedMs,
		UserID:            row.UserID.String,
		CreatedAt:         row.CreatedAt.UTC(),
	}
}

// schemaErrCodes are the postgres errors of a database the migrations did not run on.
var schemaErrCodes = map[string]bool{
	"42P01": true, // undefined_table
	"42703": true, // undefined_column
}

// trapDBErr maps "no rows" to whiteboard.ErrNotFound and schema errors to a shutdown error.
func trapDBErr(err error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return whiteboard.ErrNotFound
	}

	var code string
	var pqErr *pq.Error
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pqErr):
		code = string(pqErr.Code)
	case errors.As(err, &pgErr):
		code = pgErr.Code
	}
	if schemaErrCodes[code] {
		err = core.NewShutdownError("attempt schema out of date, run the migrations", err)
	}
	return errors.Wrap(err, msg)
}

func (repo attemptRepository) CreateAttempt(ctx context.Context, att whiteboard.Attempt) (whiteboard.Attempt, error) {
	if att.ID == "" {
		att.ID = uuid.New().String()
	}
	if att.CreatedAt.IsZero() {
		att.CreatedAt = time.Now().UTC()
	}
	row := repo.toRow(att)
	q := "INSERT INTO " + attemptTable + " (" + attemptColumns + ") VALUES (" +
		":id, :session_id, :step_id, :attempt_number, :submitted_commands, :score, :passed, " +
		":feedback, :failed_checks, :elapsed_ms, :user_id, :created_at)"
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return whiteboard.Attempt{}, trapDBErr(err, "inserting attempt")
	}
	return repo.fromRow(row), nil
}

func (repo attemptRepository) QueryAttempts(ctx context.Context, filter *whiteboard.QueryFilter, ordering []core.DBOrdering) ([]whiteboard.Attempt, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter != nil {
		if filter.SessionID != "" {
			conds = append(conds, "session_id = ?")
			args = append(args, filter.SessionID)
		}
		if filter.StepID != "" {
			conds = append(conds, "step_id = ?")
			args = append(args, filter.StepID)
		}
		if filter.UserID != "" {
			conds = append(conds, "user_id = ?")
			args = append(args, filter.UserID)
		}
		if filter.Passed != nil {
			conds = append(conds, "passed = ?")
			args = append(args, *filter.Passed)
		}
	}

	q := "SELECT " + attemptColumns + " FROM " + attemptTable
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY " + orderBy(ordering)

	var rows []attemptRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, trapDBErr(err, "querying attempts")
	}
	attempts := make([]whiteboard.Attempt, 0, len(rows))
	for _, row := range rows {
		attempts = append(attempts, repo.fromRow(row))
	}
	return attempts, nil
}

func (repo attemptRepository) GetAttempt(ctx context.Context, id string) (whiteboard.Attempt, error) {
	var row attemptRow
	q := "SELECT " + attemptColumns + " FROM " + attemptTable + " WHERE id = ?"
	if err := repo.db.GetContext(ctx, &row, repo.db.Rebind(q), id); err != nil {
		return whiteboard.Attempt{}, trapDBErr(err, "finding attempt")
	}
	return repo.fromRow(row), nil
}

// orderBy builds an ORDER BY list out of the orderable fields only.
func orderBy(ordering []core.DBOrdering) string {
	orderList := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if whiteboard.OrderableFields[ord.Field] {
			orderList = append(orderList, ord.String())
		}
	}
	orderList = append(orderList, defaultOrdering, "id ASC")
	return strings.Join(orderList, ", ")
}
