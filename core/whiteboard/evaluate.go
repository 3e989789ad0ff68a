package whiteboard

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode"
)

// failed check markers
const (
	FailMissingShape       = "missing_shape"
	FailMissingLabel       = "missing_label"
	FailMinMatchesNotMet   = "min_matches_not_met"
	FailExpressionMismatch = "expression_mismatch"
	FailCheckFailed        = "check_failed"
	FailNumberMissing      = "number_missing"
	FailNoContent          = "no_content"
)

var numberRegex = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)

type (
	// Outcome is the raw verdict of a spec evaluation.
	Outcome struct {
		Score        float64
		FailedChecks []string
	}

	// Input is what an Evaluator scores.
	Input struct {
		Commands []Command
		Spec     Spec
		Canvas   Canvas
		regexes  *regexCache
	}

	// Evaluator scores commands against one type of spec.
	Evaluator func(in Input) Outcome

	// Engine dispatches specs to the evaluator of their type. It is safe for concurrent use.
	Engine struct {
		mu         sync.RWMutex
		evaluators map[SpecType]Evaluator
		regexes    *regexCache
	}
)

// MatchAny reports whether the case-insensitive pattern matches any of texts.
// Invalid patterns match nothing.
func (in Input) MatchAny(pattern string, texts ...string) bool {
	return in.regexes.matchAny(pattern, texts...)
}

// Texts returns every text and label of the submitted commands.
func (in Input) Texts() []string {
	return collectTexts(in.Commands)
}

// NewEngine creates an Engine with the built-in evaluators registered.
// regexCacheSize bounds the compiled pattern cache (DefaultRegexCacheSize when <= 0).
func NewEngine(regexCacheSize int) *Engine {
	e := &Engine{
		evaluators: make(map[SpecType]Evaluator),
		regexes:    newRegexCache(regexCacheSize),
	}
	e.evaluators[SpecShapeAndLabelMatch] = evaluateShapeAndLabelMatch
	e.evaluators[SpecMathExpressionMatch] = evaluateMathExpressionMatch
	e.evaluators[SpecFreeformWithChecks] = evaluateFreeformWithChecks
	e.evaluators[SpecHandWrittenNumberMatch] = evaluateHandWrittenNumberMatch
	return e
}

// Register adds an evaluator for a new spec type.
func (e *Engine) Register(specType SpecType, evaluator Evaluator) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.evaluators[specType]; exists {
		return fmt.Errorf("spec type already registered: %s", specType)
	}
	e.evaluators[specType] = evaluator
	return nil
}

// Evaluate scores commands against spec. Unknown spec types score neutrally.
// An empty submission always scores 0 with a no_content failure.
func (e *Engine) Evaluate(cmds []Command, spec Spec, canvas Canvas) Outcome {
	e.mu.RLock()
	evaluator, ok := e.evaluators[spec.Type]
	e.mu.RUnlock()
	if !ok {
		evaluator = evaluateDefault
	}

	out := evaluator(Input{Commands: cmds, Spec: spec, Canvas: canvas.orDefault(), regexes: e.regexes})
	if len(cmds) == 0 {
		out.Score = 0
		if !contains(out.FailedChecks, FailNoContent) {
			out.FailedChecks = append([]string{FailNoContent}, out.FailedChecks...)
		}
	}
	if math.IsNaN(out.Score) {
		out.Score = 0
	}
	out.Score = clamp(out.Score, 0, 1)
	if out.FailedChecks == nil {
		out.FailedChecks = []string{}
	}
	return out
}

// effortScore gives some credit for showing effort when a spec expects nothing specific.
func effortScore(cmds []Command) float64 {
	if len(cmds) > 0 {
		return 0.5
	}
	return 0
}

func evaluateDefault(in Input) Outcome {
	out := Outcome{Score: effortScore(in.Commands)}
	if len(in.Commands) == 0 {
		out.FailedChecks = []string{FailNoContent}
	}
	return out
}

func evaluateShapeAndLabelMatch(in Input) Outcome {
	expected := in.Spec.ExpectedShapes
	if len(expected) == 0 {
		return evaluateDefault(in)
	}

	var out Outcome
	flat := flatten(in.Commands)
	matched := 0
	for i, exp := range expected {
		target := exp.target(in.Canvas)
		tolerance := exp.tolerance()

		var positioned []Command
		for _, cmd := range flat {
			if !Compatible(exp.Type, cmd.Kind()) {
				continue
			}
			if pt, ok := centroid(cmd); ok && distance(pt, target) <= tolerance {
				positioned = append(positioned, cmd)
			}
		}
		if len(positioned) == 0 {
			out.FailedChecks = append(out.FailedChecks, fmt.Sprintf("%s:%d", FailMissingShape, i))
			continue
		}
		if exp.LabelRegex != "" && !labelMatches(in, exp.LabelRegex, positioned) {
			out.FailedChecks = append(out.FailedChecks, fmt.Sprintf("%s:%d", FailMissingLabel, i))
			continue
		}
		matched++
	}

	if in.Spec.MinMatches > 0 && matched < in.Spec.MinMatches {
		out.FailedChecks = append(out.FailedChecks, FailMinMatchesNotMet)
	}
	out.Score = math.Min(1, float64(matched)/float64(len(expected)))
	return out
}

func labelMatches(in Input, pattern string, cmds []Command) bool {
	for _, cmd := range cmds {
		if in.MatchAny(pattern, textOf(cmd)...) {
			return true
		}
	}
	return false
}

var expressionReplacer = strings.NewReplacer("×", "*", "÷", "/", "−", "-")

// normalizeExpression strips whitespace, maps math symbols to their ASCII operators and lowers.
func normalizeExpression(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	return strings.ToLower(expressionReplacer.Replace(s))
}

func evaluateMathExpressionMatch(in Input) Outcome {
	expected := normalizeExpression(in.Spec.ExpectedExpression)
	student := normalizeExpression(strings.Join(in.Texts(), ""))

	mismatch := Outcome{FailedChecks: []string{FailExpressionMismatch}}
	if expected == "" || student == "" {
		return mismatch
	}
	if strings.Contains(student, expected) || strings.Contains(expected, student) {
		return Outcome{Score: 1}
	}

	tokens := strings.FieldsFunc(expected, func(r rune) bool { return strings.ContainsRune("=+-*/", r) })
	if len(tokens) == 0 {
		return mismatch
	}
	numbers := extractNumbers(student)
	found := 0
	for _, tok := range tokens {
		if strings.Contains(student, tok) || numberWithin(tok, numbers, in.Spec.Tolerance) {
			found++
		}
	}
	mismatch.Score = float64(found) / float64(len(tokens))
	return mismatch
}

// numberWithin reports whether tok is a number within tolerance of one of numbers.
func numberWithin(tok string, numbers []float64, tolerance float64) bool {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return false
	}
	return anyWithin(numbers, v, tolerance)
}

func evaluateFreeformWithChecks(in Input) Outcome {
	checks := in.Spec.Checks
	if len(checks) == 0 {
		return evaluateDefault(in)
	}

	var out Outcome
	text := strings.Join(in.Texts(), " ")
	passed := 0
	for i, check := range checks {
		var ok bool
		switch check.CheckType {
		case CheckContainsText:
			ok = check.Regex != "" && in.MatchAny(check.Regex, text)
		case CheckHasDrawing:
			ok = len(in.Commands) > 0
		}
		if ok {
			passed++
		} else {
			out.FailedChecks = append(out.FailedChecks, fmt.Sprintf("%s:%d:%s", FailCheckFailed, i, check.CheckType))
		}
	}
	out.Score = float64(passed) / float64(len(checks))
	return out
}

func evaluateHandWrittenNumberMatch(in Input) Outcome {
	expected := in.Spec.ExpectedNumbers
	if len(expected) == 0 {
		return evaluateDefault(in)
	}

	var numbers []float64
	for _, s := range in.Texts() {
		numbers = append(numbers, extractNumbers(s)...)
	}

	var out Outcome
	matched := 0
	for i, exp := range expected {
		if anyWithin(numbers, exp.Value, exp.Tolerance) {
			matched++
		} else {
			out.FailedChecks = append(out.FailedChecks, fmt.Sprintf("%s:%d", FailNumberMissing, i))
		}
	}
	out.Score = float64(matched) / float64(len(expected))
	return out
}

func extractNumbers(s string) []float64 {
	var numbers []float64
	for _, m := range numberRegex.FindAllString(s, -1) {
		if v, err := strconv.ParseFloat(m, 64); err == nil {
			numbers = append(numbers, v)
		}
	}
	return numbers
}

func anyWithin(numbers []float64, value, tolerance float64) bool {
	tolerance = math.Max(0, tolerance)
	for _, n := range numbers {
		if math.Abs(n-value) <= tolerance {
			return true
		}
	}
	return false
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
