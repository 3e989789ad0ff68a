package main

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tutorboard/core"
	"github.com/trezcool/tutorboard/core/whiteboard"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	var out bytes.Buffer
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	return &commandLine{
		db:         func() (*sql.DB, error) { return nil, nil },
		sanitizer:  whiteboard.DefaultSanitizer,
		validate:   validate,
		translator: translator,
		out:        &out,
	}, &out
}

func writeFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writeFile() failed: %v", err)
	}
	return path
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func checkErr(t *testing.T, tt cliTest, err error) {
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_run(t *testing.T) {
	cli, _ := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "sanitize: no file", args: []string{"sanitize"}, wantErr: errHelp},
		{name: "score: no spec", args: []string{"score", "-commands", "cmds.json"}, wantErr: errHelp},
		{name: "score: unknown flag", args: []string{"score", "-lol"}, wantErrStr: "flag provided but not defined: -lol"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "attempt_index", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	t.Run("db unavailable", func(t *testing.T) {
		cli.db = func() (*sql.DB, error) { return nil, fmt.Errorf("connection refused") }
		assert.EqualError(t, cli.run([]string{"admin", "migrate", "up"}), "connection refused")
	})
}

func Test_commandLine_sanitize(t *testing.T) {
	cli, out := setup(t)
	path := writeFile(t, "cmds.json", `[{"type": "circle", "x": 10, "y": 10, "radius": 5}, {"type": "lol"}]`)

	require.NoError(t, cli.run([]string{"admin", "sanitize", "-file", path}))
	assert.JSONEq(t, `{
		"commands": [{"type": "circle", "x": 10, "y": 10, "radius": 5, "color": "#FFFFFF"}],
		"report": {"received": 2, "kept": 1, "dropped": 1, "truncated": 0}
	}`, out.String())

	t.Run("stdin", func(t *testing.T) {
		out.Reset()
		stdin = strings.NewReader(`"not a list"`)
		require.NoError(t, cli.run([]string{"admin", "sanitize", "-file", "-"}))
		assert.JSONEq(t, `{"commands": [], "report": {"received": 0, "kept": 0, "dropped": 0, "truncated": 0, "malformed": true}}`, out.String())
	})

	t.Run("missing file", func(t *testing.T) {
		assert.Error(t, cli.run([]string{"admin", "sanitize", "-file", filepath.Join(t.TempDir(), "nope.json")}))
	})
}

func Test_commandLine_score(t *testing.T) {
	cmds := writeFile(t, "cmds.json", `[{"type": "text", "x": 100, "y": 100, "text": "3 + 4 = 7"}]`)

	tests := []struct {
		name     string
		spec     string
		specFile string
		args     []string
		want     whiteboard.Result
	}{
		{
			name:     "json spec",
			specFile: "spec.json",
			spec:     `{"type": "math_expression_match", "expectedExpression": "3+4=7"}`,
			want: whiteboard.Result{
				OK: true, Score: 1, FailedChecks: []string{}, SuggestedHintIndex: whiteboard.NoHint,
				FeedbackMessage: "Great job! You got it right.",
			},
		},
		{
			name:     "yaml spec",
			specFile: "spec.yaml",
			spec: `
type: hand_written_number_match
acceptanceThreshold: 1
expectedNumbers:
  - value: 7
  - value: 12
`,
			want: whiteboard.Result{
				OK: false, Score: 0.5, FailedChecks: []string{"number_missing:1"}, SuggestedHintIndex: whiteboard.HintClose,
				FeedbackMessage: "You're close! Take another look and adjust your work.",
			},
		},
		{
			name:     "relative shape on a custom canvas",
			specFile: "spec.yml",
			spec: `
type: shape_and_label_match
expectedShapes:
  - type: text
    approxX: 50
    approxY: 50
    relative: true
`,
			args: []string{"-w", "200", "-h", "200"},
			want: whiteboard.Result{
				OK: true, Score: 1, FailedChecks: []string{}, SuggestedHintIndex: whiteboard.NoHint,
				FeedbackMessage: "Great job! You got it right.",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, out := setup(t)
			spec := writeFile(t, tt.specFile, tt.spec)

			args := append([]string{"admin", "score", "-commands", cmds, "-spec", spec}, tt.args...)
			require.NoError(t, cli.run(args))

			var got whiteboard.Result
			require.NoError(t, json.Unmarshal(out.Bytes(), &got))
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("bad spec", func(t *testing.T) {
		cli, _ := setup(t)
		spec := writeFile(t, "spec.json", `{"type": `)
		err := cli.run([]string{"admin", "score", "-commands", cmds, "-spec", spec})
		if assert.Error(t, err) {
			assert.True(t, strings.HasPrefix(err.Error(), "decoding spec"))
		}
	})

	t.Run("out of range spec", func(t *testing.T) {
		cli, out := setup(t)
		spec := writeFile(t, "spec.yaml", `
type: shape_and_label_match
acceptanceThreshold: 5
expectedShapes:
  - type: circle
    approxX: 400
    approxY: 300
    tolerancePx: -10
`)
		err := cli.run([]string{"admin", "score", "-commands", cmds, "-spec", spec})
		require.Error(t, err)

		vErr, ok := errors.Cause(err).(*core.ValidationError)
		require.True(t, ok, "want *core.ValidationError, got %T", errors.Cause(err))
		fields := vErr.FieldMap()
		assert.Len(t, fields, 2)
		assert.Contains(t, fields, "acceptanceThreshold")
		assert.Contains(t, fields, "tolerancePx")
		assert.True(t, strings.HasPrefix(err.Error(), "invalid spec: acceptanceThreshold: "))
		assert.Empty(t, out.String(), "nothing is scored")
	})
}
