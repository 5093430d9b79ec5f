package codegen

import (
	"errors"
	"fmt"

	"prop-strategy-builder/internal/types"
)

// ErrInvalidCondition matches every *InvalidConditionError via errors.Is.
var ErrInvalidCondition = errors.New("invalid condition")

// InvalidConditionError identifies the condition that failed a generation call.
type InvalidConditionError struct {
	Side     types.Side
	Index    int
	Kind     types.IndicatorKind
	Operator types.Operator
	Reason   string
}

func (e *InvalidConditionError) Error() string {
	return fmt.Sprintf("%s condition[%d]: %s", e.Side, e.Index, e.Reason)
}

func (e *InvalidConditionError) Is(target error) bool {
	return target == ErrInvalidCondition
}

func invalidCondition(side types.Side, idx int, c types.IndicatorCondition, format string, args ...any) error {
	return &InvalidConditionError{
		Side:     side,
		Index:    idx,
		Kind:     c.Kind,
		Operator: c.Operator,
		Reason:   fmt.Sprintf(format, args...),
	}
}
