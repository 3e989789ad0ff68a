package testutil

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/tutorboard/core"
	"github.com/trezcool/tutorboard/core/whiteboard"
	logsvc "github.com/trezcool/tutorboard/services/logger"
	"github.com/trezcool/tutorboard/storage/database"
)

// dbEnvVar enables the tests that need a live PostgreSQL.
const dbEnvVar = "TEST_DB"

// NewConfig returns the default config tuned for tests: no debug, no request logs.
func NewConfig() *core.Config {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.Server.DisableReqLogs = true
	return conf
}

// NewLogger returns a disabled Rollbar logger that writes to nowhere.
func NewLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "TEST : ", 0), conf)
	logger.Enable(false)
	return logger
}

// PrepareDB opens, migrates and empties the test database. Skips the test when TEST_DB is not set.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	if os.Getenv(dbEnvVar) == "" {
		t.Skipf("%s not set: skipping database test", dbEnvVar)
	}

	conf := NewConfig()
	if err := database.CreateIfNotExist(conf); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	db, err := database.OpenX(conf)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db.DB); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	if _, err = db.Exec(`TRUNCATE "attempt"`); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

func CreateAttempt(
	t *testing.T,
	repo whiteboard.Repository,
	sessionID, stepID string,
	attemptNumber int,
	score float64,
	passed bool,
	createdAt ...time.Time,
) whiteboard.Attempt {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	cmds, _ := json.Marshal([]whiteboard.Command{whiteboard.Circle{X: 100, Y: 100, Radius: 20, Style: whiteboard.Style{Color: whiteboard.DefaultColor}}})
	att := whiteboard.Attempt{
		SessionID:         sessionID,
		StepID:            stepID,
		AttemptNumber:     attemptNumber,
		SubmittedCommands: cmds,
		Score:             score,
		Passed:            passed,
		Feedback:          "feedback",
		FailedChecks:      []string{},
		CreatedAt:         tstamp.Truncate(time.Microsecond),
	}
	att, err := repo.CreateAttempt(context.Background(), att)
	if err != nil {
		t.Fatalf("CreateAttempt() failed: %v", err)
	}
	return att
}
