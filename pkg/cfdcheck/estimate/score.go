package estimate

import (
	"math"

	"github.com/jamesainslie/cfdcheck/pkg/cfdcheck/types"
)

// Score compares an installed capacity against a required one.
// Every estimator routes through Score so ratios stay comparable across
// units. A zero, negative or non-finite requirement is rejected with an
// error wrapping ErrInvalidInput that names the resource.
func Score(resource types.Resource, actual, required float64) (types.BottleneckResult, error) {
	if required == 0 || required < 0 || math.IsNaN(required) || math.IsInf(required, 0) {
		return types.BottleneckResult{}, &FieldError{
			Field:  string(resource),
			Value:  required,
			Reason: "required capacity must be a positive finite number",
			Err:    ErrInvalidInput,
		}
	}
	if actual < 0 || math.IsNaN(actual) || math.IsInf(actual, 0) {
		return types.BottleneckResult{}, invalid(string(resource), actual, "actual capacity must be a non-negative finite number")
	}

	return types.BottleneckResult{
		Resource: resource,
		Ratio:    actual / required,
		Actual:   actual,
		Required: required,
	}, nil
}
