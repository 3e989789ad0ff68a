package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"syscall"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tutorboard/core"
	"github.com/trezcool/tutorboard/core/whiteboard"
)

func Test_home(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/")
	app.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Tutorboard API!", rec.Body.String())
}

func Test_whiteboardApi_sanitize(t *testing.T) {
	app := setup(t)

	tests := []httpTest{
		{
			name:   "drops invalid commands",
			method: http.MethodPost,
			path:   "/v1/whiteboard/sanitize",
			body: []byte(`{"commands": [
				{"type": "circle", "x": 100, "y": 100, "radius": 20, "color": "red"},
				{"type": "script", "x": 1},
				{"type": "circle", "x": -1, "y": 5, "radius": 3},
				{"type": "text", "x": 10, "y": 20, "text": "2+2=4", "size": 200, "color": "#00ff00"}
			]}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{
				"commands": [
					{"type": "circle", "x": 100, "y": 100, "radius": 20, "color": "#FFFFFF"},
					{"type": "text", "x": 10, "y": 20, "text": "2+2=4", "size": 72, "color": "#00ff00"}
				],
				"report": {"received": 4, "kept": 2, "dropped": 2, "truncated": 0}
			}`),
		},
		{
			name:     "custom canvas",
			method:   http.MethodPost,
			path:     "/v1/whiteboard/sanitize",
			body:     []byte(`{"canvasWidth": 100, "canvasHeight": 100, "commands": [{"type": "rect", "x": 10, "y": 10, "width": 50, "height": 150}]}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"commands": [], "report": {"received": 1, "kept": 0, "dropped": 1, "truncated": 0}}`),
		},
		{
			name:     "not an array",
			method:   http.MethodPost,
			path:     "/v1/whiteboard/sanitize",
			body:     []byte(`{"commands": {"type": "circle"}}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"commands": [], "report": {"received": 0, "kept": 0, "dropped": 0, "truncated": 0, "malformed": true}}`),
		},
		{
			name:     "no commands",
			method:   http.MethodPost,
			path:     "/v1/whiteboard/sanitize",
			body:     []byte(`{}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"commands": [], "report": {"received": 0, "kept": 0, "dropped": 0, "truncated": 0}}`),
		},
		{
			name:     "invalid canvas",
			method:   http.MethodPost,
			path:     "/v1/whiteboard/sanitize",
			body:     []byte(`{"canvasWidth": -5, "commands": []}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"canvasWidth": "canvasWidth must be greater than 0"}`),
		},
		{
			name:     "malformed body",
			method:   http.MethodPost,
			path:     "/v1/whiteboard/sanitize",
			body:     []byte(`{"commands": [`),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_whiteboardApi_submit(t *testing.T) {
	app := setup(t)

	spec := `{"type": "shape_and_label_match", "expectedShapes": [{"type": "circle", "approxX": 100, "approxY": 100, "labelRegex": "sun"}]}`

	tests := []httpTest{
		{
			name:   "passing attempt",
			method: http.MethodPost,
			path:   "/v1/whiteboard/validate",
			body: []byte(`{"sessionId": "s1", "stepId": "draw-sun", "attemptNumber": 1, "elapsedMs": 4200,
				"commands": [{"type": "circle", "x": 110, "y": 100, "radius": 30, "label": "Sun"}],
				"spec": ` + spec + `}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"ok": true, "score": 1, "failedChecks": [], "suggestedHintIndex": -1,
				"feedbackMessage": "Great job! You got it right."}`),
		},
		{
			name:     "empty canvas",
			method:   http.MethodPost,
			path:     "/v1/whiteboard/validate",
			body:     []byte(`{"sessionId": "s1", "stepId": "draw-sun", "attemptNumber": 2, "commands": [], "spec": ` + spec + `}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"ok": false, "score": 0, "failedChecks": ["no_content", "missing_shape:0"], "suggestedHintIndex": 2,
				"feedbackMessage": "This one needs more practice. Let's go through the hint step by step. Some shapes are missing or not in the right place."}`),
		},
		{
			name:     "unknown spec type scores neutrally",
			method:   http.MethodPost,
			path:     "/v1/whiteboard/validate",
			body:     []byte(`{"sessionId": "s2", "stepId": "x", "attemptNumber": 1, "commands": [{"type": "line", "x1": 0, "y1": 0, "x2": 10, "y2": 10}], "spec": {"type": "lol"}}`),
			wantCode: http.StatusOK,
			wantData: []byte(`{"ok": false, "score": 0.5, "failedChecks": [], "suggestedHintIndex": 0,
				"feedbackMessage": "You're close! Take another look and adjust your work."}`),
		},
		{
			name:     "missing metadata",
			method:   http.MethodPost,
			path:     "/v1/whiteboard/validate",
			body:     []byte(`{"sessionId": "s1", "commands": []}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"stepId": "this field is required", "attemptNumber": "this field is required"}`),
		},
		{
			name:     "blank step",
			method:   http.MethodPost,
			path:     "/v1/whiteboard/validate",
			body:     []byte(`{"sessionId": "s1", "stepId": "   ", "attemptNumber": 1}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"stepId": "this field is required"}`),
		},
		{
			name:     "threshold out of range",
			method:   http.MethodPost,
			path:     "/v1/whiteboard/validate",
			body:     []byte(`{"sessionId": "s1", "stepId": "x", "attemptNumber": 1, "spec": {"type": "lol", "acceptanceThreshold": 2}}`),
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"acceptanceThreshold": "acceptanceThreshold must be 1 or less"}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_whiteboardApi_attempts(t *testing.T) {
	app := setup(t)

	submit := func(session, step string, number int, cmds string) {
		body := `{"sessionId": "` + session + `", "stepId": "` + step + `", "attemptNumber": ` + string(rune('0'+number)) +
			`, "commands": ` + cmds + `, "spec": {"type": "freeform_with_checks", "checks": [{"checkType": "has_drawing"}]}}`
		req, rec := newRequest(http.MethodPost, "/v1/whiteboard/validate", []byte(body))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	circle := `[{"type": "circle", "x": 1, "y": 1, "radius": 1}]`
	submit("s1", "st1", 1, `[]`)
	submit("s1", "st1", 2, circle)
	submit("s1", "st2", 1, circle)
	submit("s2", "st1", 1, circle)

	query := func(t *testing.T, path string) []whiteboard.Attempt {
		req, rec := newRequest(http.MethodGet, path)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var atts []whiteboard.Attempt
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &atts))
		return atts
	}
	keys := func(atts []whiteboard.Attempt) []string {
		res := make([]string, 0, len(atts))
		for _, a := range atts {
			res = append(res, a.StepID+"#"+string(rune('0'+a.AttemptNumber)))
		}
		return res
	}

	t.Run("session attempts", func(t *testing.T) {
		atts := query(t, "/v1/sessions/s1/attempts")
		assert.Equal(t, []string{"st1#1", "st1#2", "st2#1"}, keys(atts))

		first := atts[0]
		assert.False(t, first.Passed)
		assert.Equal(t, 0.0, first.Score)
		assert.Equal(t, []string{"no_content", "check_failed:0:has_drawing"}, first.FailedChecks)
		assert.Equal(t, fixedNow, first.CreatedAt)
		assert.JSONEq(t, `[]`, string(first.SubmittedCommands))

		assert.True(t, atts[1].Passed)
		assert.JSONEq(t, `[{"type": "circle", "x": 1, "y": 1, "radius": 1, "color": "#FFFFFF"}]`, string(atts[1].SubmittedCommands))
	})

	t.Run("filters & ordering", func(t *testing.T) {
		assert.Equal(t, []string{"st1#1", "st1#2"}, keys(query(t, "/v1/sessions/s1/attempts?step=st1")))
		assert.Equal(t, []string{"st1#2", "st2#1"}, keys(query(t, "/v1/sessions/s1/attempts?passed=true")))
		assert.Equal(t, []string{"st1#2", "st1#1", "st2#1"}, keys(query(t, "/v1/sessions/s1/attempts?ordering=-attempt_number,-password")))
		assert.Empty(t, query(t, "/v1/sessions/lol/attempts"))
	})

	t.Run("invalid passed filter", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/sessions/s1/attempts?passed=maybe")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: []byte(`{"passed": "must be a boolean"}`)}, rec)
	})

	t.Run("retrieve", func(t *testing.T) {
		atts := query(t, "/v1/sessions/s2/attempts")
		require.Len(t, atts, 1)

		req, rec := newRequest(http.MethodGet, "/v1/attempts/"+atts[0].ID)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.Contains(rec.Body.String(), `"sessionId":"s2"`))

		for _, id := range []string{"lol", "8a0c7bb3-79d8-4b0d-a5a2-6dd5dd9b8d4e"} {
			req, rec = newRequest(http.MethodGet, "/v1/attempts/"+id)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marshallObj(t, httpErr{Error: "not found"})}, rec)
		}
	})
}

// failingRepo answers every query with err.
type failingRepo struct {
	whiteboard.Repository
	err error
}

func (r failingRepo) QueryAttempts(context.Context, *whiteboard.QueryFilter, []core.DBOrdering) ([]whiteboard.Attempt, error) {
	return nil, r.err
}

func Test_whiteboardApi_serverErrors(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantShutdown bool
	}{
		{name: "transient", err: errors.New("connection reset by peer")},
		{
			name:         "unrecoverable",
			err:          errors.Wrap(core.NewShutdownError("attempt schema out of date", errors.New(`relation "attempt" does not exist`)), "querying attempts"),
			wantShutdown: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setup(t, failingRepo{err: tt.err})

			req, rec := newRequest(http.MethodGet, "/v1/sessions/s1/attempts")
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{wantCode: http.StatusInternalServerError, wantData: marshallObj(t, httpErr{Error: "Internal Server Error"})}, rec)

			select {
			case sig := <-app.ShutdownSignal():
				assert.True(t, tt.wantShutdown, "unexpected shutdown")
				assert.Equal(t, syscall.SIGTERM, sig)
			default:
				assert.False(t, tt.wantShutdown, "server was not signaled to shut down")
			}
		})
	}
}
