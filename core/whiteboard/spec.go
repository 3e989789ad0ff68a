package whiteboard

import (
	"github.com/go-playground/validator/v10"
)

// SpecType discriminates validation specs.
type SpecType string

const (
	SpecShapeAndLabelMatch     SpecType = "shape_and_label_match"
	SpecMathExpressionMatch    SpecType = "math_expression_match"
	SpecFreeformWithChecks     SpecType = "freeform_with_checks"
	SpecHandWrittenNumberMatch SpecType = "hand_written_number_match"
)

// check types of freeform_with_checks
const (
	CheckContainsText = "contains_text"
	CheckHasDrawing   = "has_drawing"
)

const (
	DefaultAcceptanceThreshold = 0.75
	DefaultTolerancePx         = 50
)

type (
	// Spec describes what a correct submission for a lesson step must contain.
	// Only the fields of its Type are read.
	Spec struct {
		Type                SpecType `json:"type" yaml:"type"`
		AcceptanceThreshold *float64 `json:"acceptanceThreshold,omitempty" yaml:"acceptanceThreshold,omitempty" validate:"omitempty,gte=0,lte=1"`

		// shape_and_label_match
		ExpectedShapes []ExpectedShape `json:"expectedShapes,omitempty" yaml:"expectedShapes,omitempty" validate:"omitempty,max=100,dive"`
		MinMatches     int             `json:"minMatches,omitempty" yaml:"minMatches,omitempty" validate:"gte=0"`

		// math_expression_match
		ExpectedExpression string  `json:"expectedExpression,omitempty" yaml:"expectedExpression,omitempty" validate:"max=500"`
		Tolerance          float64 `json:"tolerance,omitempty" yaml:"tolerance,omitempty" validate:"gte=0"`

		// freeform_with_checks
		Checks []Check `json:"checks,omitempty" yaml:"checks,omitempty" validate:"omitempty,max=100,dive"`

		// hand_written_number_match
		ExpectedNumbers []ExpectedNumber `json:"expectedNumbers,omitempty" yaml:"expectedNumbers,omitempty" validate:"omitempty,max=100,dive"`
	}

	ExpectedShape struct {
		Type        string  `json:"type" yaml:"type"`
		ApproxX     float64 `json:"approxX" yaml:"approxX"`
		ApproxY     float64 `json:"approxY" yaml:"approxY"`
		TolerancePx float64 `json:"tolerancePx,omitempty" yaml:"tolerancePx,omitempty" validate:"gte=0"`
		LabelRegex  string  `json:"labelRegex,omitempty" yaml:"labelRegex,omitempty" validate:"max=500"`
		// Relative positions are percentages of the canvas dimensions.
		Relative bool `json:"relative,omitempty" yaml:"relative,omitempty"`
	}

	Check struct {
		CheckType string `json:"checkType" yaml:"checkType"`
		Regex     string `json:"regex,omitempty" yaml:"regex,omitempty" validate:"max=500"`
	}

	ExpectedNumber struct {
		Value     float64 `json:"value" yaml:"value"`
		Tolerance float64 `json:"tolerance,omitempty" yaml:"tolerance,omitempty" validate:"gte=0"`
	}
)

// Threshold is the minimum score to pass.
func (sp Spec) Threshold() float64 {
	if sp.AcceptanceThreshold == nil {
		return DefaultAcceptanceThreshold
	}
	return *sp.AcceptanceThreshold
}

// Validate checks value ranges only: unknown spec and check types are valid and score neutrally.
func (sp Spec) Validate(validate *validator.Validate) error {
	return validate.Struct(sp)
}

// target is the absolute canvas position of the expected shape.
func (es ExpectedShape) target(c Canvas) Point {
	if es.Relative {
		return Point{X: es.ApproxX / 100 * c.Width, Y: es.ApproxY / 100 * c.Height}
	}
	return Point{X: es.ApproxX, Y: es.ApproxY}
}

func (es ExpectedShape) tolerance() float64 {
	if es.TolerancePx > 0 {
		return es.TolerancePx
	}
	return DefaultTolerancePx
}
