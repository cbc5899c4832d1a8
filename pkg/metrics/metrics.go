package metrics

import (
	"fmt"
	"math"
)

// Func reduces one emitted value to a measurement.
type Func func(value any) (any, error)

// PairFunc compares the values of two argument paths, in subscription order.
type PairFunc func(values []any) (any, error)

// AsVector coerces an emitted value to a []float64 operand. Scalars become
// one-element vectors.
func AsVector(value any) ([]float64, error) {
	switch v := value.(type) {
	case []float64:
		return v, nil
	case []int:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case float64:
		return []float64{v}, nil
	case float32:
		return []float64{float64(v)}, nil
	case int:
		return []float64{float64(v)}, nil
	default:
		return nil, fmt.Errorf("cannot interpret %T as a numeric vector", value)
	}
}

// Sum returns the sum of the value's elements.
func Sum(value any) (any, error) {
	v, err := AsVector(value)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for _, x := range v {
		total += x
	}
	return total, nil
}

// Mean returns the arithmetic mean of the value's elements.
func Mean(value any) (any, error) {
	v, err := AsVector(value)
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("mean of an empty vector")
	}
	total := 0.0
	for _, x := range v {
		total += x
	}
	return total / float64(len(v)), nil
}

// Max returns the largest element of the value.
func Max(value any) (any, error) {
	v, err := AsVector(value)
	if err != nil {
		return nil, err
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("max of an empty vector")
	}
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}
	return m, nil
}

// pairOperands coerces the two operands of a pair metric and checks that
// their dimensions agree.
func pairOperands(values []any) (a, b []float64, err error) {
	if len(values) != 2 {
		return nil, nil, fmt.Errorf("pair metric expects 2 operands, got %d", len(values))
	}
	a, err = AsVector(values[0])
	if err != nil {
		return nil, nil, err
	}
	b, err = AsVector(values[1])
	if err != nil {
		return nil, nil, err
	}
	if len(a) != len(b) {
		return nil, nil, fmt.Errorf("operand dimensions differ: %d vs %d", len(a), len(b))
	}
	return a, b, nil
}

// L0 counts the elements where the operands differ.
func L0(values []any) (any, error) {
	a, b, err := pairOperands(values)
	if err != nil {
		return nil, err
	}
	count := 0.0
	for i := range a {
		if a[i] != b[i] {
			count++
		}
	}
	return count, nil
}

// L1 returns the sum of absolute element differences.
func L1(values []any) (any, error) {
	a, b, err := pairOperands(values)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for i := range a {
		total += math.Abs(a[i] - b[i])
	}
	return total, nil
}

// L2 returns the Euclidean distance between the operands.
func L2(values []any) (any, error) {
	a, b, err := pairOperands(values)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for i := range a {
		d := a[i] - b[i]
		total += d * d
	}
	return math.Sqrt(total), nil
}

// Linf returns the largest absolute element difference.
func Linf(values []any) (any, error) {
	a, b, err := pairOperands(values)
	if err != nil {
		return nil, err
	}
	m := 0.0
	for i := range a {
		if d := math.Abs(a[i] - b[i]); d > m {
			m = d
		}
	}
	return m, nil
}

// CategoricalAccuracy compares a label operand against a prediction operand.
// The prediction may be a logit vector (argmax is taken) or a scalar class.
// The result is 1.0 on a match, 0.0 otherwise.
func CategoricalAccuracy(values []any) (any, error) {
	if len(values) != 2 {
		return nil, fmt.Errorf("categorical_accuracy expects 2 operands, got %d", len(values))
	}
	label, err := asClass(values[0])
	if err != nil {
		return nil, fmt.Errorf("label operand: %w", err)
	}
	pred, err := asClass(values[1])
	if err != nil {
		return nil, fmt.Errorf("prediction operand: %w", err)
	}
	if label == pred {
		return 1.0, nil
	}
	return 0.0, nil
}

// asClass reduces a value to a class index: scalars directly, vectors by argmax.
func asClass(value any) (int, error) {
	v, err := AsVector(value)
	if err != nil {
		return 0, err
	}
	switch len(v) {
	case 0:
		return 0, fmt.Errorf("empty operand")
	case 1:
		return int(v[0]), nil
	default:
		best := 0
		for i, x := range v {
			if x > v[best] {
				best = i
			}
		}
		return best, nil
	}
}
