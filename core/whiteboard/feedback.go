package whiteboard

import "strings"

// hint indexes
const (
	NoHint           = -1
	HintClose        = 0
	HintTryAgain     = 1
	HintMorePractice = 2
)

const (
	msgSuccess      = "Great job! You got it right."
	msgClose        = "You're close! Take another look and adjust your work."
	msgTryAgain     = "Not quite. Try again, and check the hint."
	msgMorePractice = "This one needs more practice. Let's go through the hint step by step."
)

// markerClauses are appended to feedback, in this order, when a failed check carries their marker.
var markerClauses = []struct {
	marker string
	clause string
}{
	{FailMissingShape, "Some shapes are missing or not in the right place."},
	{FailMissingLabel, "Check the labels on your shapes."},
	{FailExpressionMismatch, "Double-check your expression."},
}

// Result is the verdict returned to the tutoring UI.
type Result struct {
	OK                 bool     `json:"ok"`
	Score              float64  `json:"score"`
	FailedChecks       []string `json:"failedChecks"`
	SuggestedHintIndex int      `json:"suggestedHintIndex"`
	FeedbackMessage    string   `json:"feedbackMessage"`
}

// Score evaluates cmds against spec and turns the outcome into a verdict with feedback.
// canvas is optional and defaults to 800x600.
func (e *Engine) Score(cmds []Command, spec Spec, canvas ...Canvas) Result {
	c := DefaultCanvas
	if len(canvas) > 0 {
		c = canvas[0].orDefault()
	}
	out := e.Evaluate(cmds, spec, c)
	return verdict(out, spec.Threshold())
}

var defaultEngine = NewEngine(DefaultRegexCacheSize)

// ScoreAttempt scores cmds with a shared default Engine.
func ScoreAttempt(cmds []Command, spec Spec, canvas ...Canvas) Result {
	return defaultEngine.Score(cmds, spec, canvas...)
}

func verdict(out Outcome, threshold float64) Result {
	res := Result{
		OK:           out.Score >= threshold,
		Score:        out.Score,
		FailedChecks: out.FailedChecks,
	}

	var msg string
	switch {
	case res.OK:
		res.SuggestedHintIndex, msg = NoHint, msgSuccess
	case out.Score >= 0.5:
		res.SuggestedHintIndex, msg = HintClose, msgClose
	case out.Score >= 0.25:
		res.SuggestedHintIndex, msg = HintTryAgain, msgTryAgain
	default:
		res.SuggestedHintIndex, msg = HintMorePractice, msgMorePractice
	}

	parts := []string{msg}
	for _, mc := range markerClauses {
		if hasMarker(out.FailedChecks, mc.marker) {
			parts = append(parts, mc.clause)
		}
	}
	res.FeedbackMessage = strings.Join(parts, " ")
	return res
}

// hasMarker matches failed checks by marker prefix (e.g. "missing_shape:2").
func hasMarker(failed []string, marker string) bool {
	for _, f := range failed {
		if f == marker || strings.HasPrefix(f, marker+":") {
			return true
		}
	}
	return false
}
