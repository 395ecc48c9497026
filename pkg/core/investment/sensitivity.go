package investment

import "fmt"

// Probe evaluates a fresh Model built from a copy of m's assumptions with the
// overrides applied, and extracts target from it. m is never modified, so
// probes may run in any order or concurrently.
func (m *Model) Probe(target Metric, overrides ...Override) (float64, error) {
	if !target.Valid() {
		return 0, fmt.Errorf("%w: unknown metric %d", ErrInvalidInput, int(target))
	}
	a, err := m.assumptions.Apply(overrides...)
	if err != nil {
		return 0, err
	}
	probe, err := New(a)
	if err != nil {
		return 0, err
	}
	return probe.Metric(target)
}

// Sensitivity re-evaluates the model once per delta with parameter set to
// base+delta and returns target for each, in the order of deltas.
//
// base is supplied by the caller and need not equal the model's own value for
// the parameter. IRR results are in percent.
func (m *Model) Sensitivity(parameter Parameter, base float64, deltas []float64, target Metric) ([]float64, error) {
	if !parameter.Valid() {
		return nil, fmt.Errorf("%w: unknown parameter %d", ErrInvalidInput, int(parameter))
	}

	results := make([]float64, len(deltas))
	for i, delta := range deltas {
		v, err := m.Probe(target, Override{Parameter: parameter, Value: base + delta})
		if err != nil {
			return nil, fmt.Errorf("sensitivity %s[%d] delta %v: %w", parameter, i, delta, err)
		}
		results[i] = v
	}
	return results, nil
}

// SensitivityMatrix re-evaluates the model over every (deltas1[i], deltas2[j])
// pair and returns a row-major grid: row i follows deltas1, column j follows
// deltas2. When param1 == param2 the second assignment wins.
func (m *Model) SensitivityMatrix(
	param1 Parameter, base1 float64, deltas1 []float64,
	param2 Parameter, base2 float64, deltas2 []float64,
	target Metric,
) ([][]float64, error) {
	if !param1.Valid() || !param2.Valid() {
		return nil, fmt.Errorf("%w: unknown parameter in (%d, %d)", ErrInvalidInput, int(param1), int(param2))
	}

	matrix := make([][]float64, len(deltas1))
	for i, d1 := range deltas1 {
		row := make([]float64, len(deltas2))
		for j, d2 := range deltas2 {
			v, err := m.Probe(target,
				Override{Parameter: param1, Value: base1 + d1},
				Override{Parameter: param2, Value: base2 + d2},
			)
			if err != nil {
				return nil, fmt.Errorf("sensitivity matrix [%d][%d] (%s%+v, %s%+v): %w", i, j, param1, d1, param2, d2, err)
			}
			row[j] = v
		}
		matrix[i] = row
	}
	return matrix, nil
}
