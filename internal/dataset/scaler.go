package dataset

import "gonum.org/v1/gonum/floats"

// MinMaxScaler maps values linearly from [Min, Max] onto [Lo, Hi].
type MinMaxScaler struct {
	Min, Max float64
	Lo, Hi   float64
}

// FitMinMax fits a scaler on values for the target range [lo, hi].
func FitMinMax(values []float64, lo, hi float64) MinMaxScaler {
	s := MinMaxScaler{Lo: lo, Hi: hi}
	if len(values) == 0 {
		return s
	}
	s.Min, s.Max = floats.Min(values), floats.Max(values)
	return s
}

// scale is the slope of the mapping; a constant input range is treated as width 1.
func (s MinMaxScaler) scale() float64 {
	span := s.Max - s.Min
	if span == 0 {
		span = 1
	}
	return (s.Hi - s.Lo) / span
}

func (s MinMaxScaler) Transform(v float64) float64 {
	return (v-s.Min)*s.scale() + s.Lo
}

func (s MinMaxScaler) Inverse(v float64) float64 {
	return (v-s.Lo)/s.scale() + s.Min
}

// TransformAll returns a scaled copy of values.
func (s MinMaxScaler) TransformAll(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = s.Transform(v)
	}
	return out
}

// InverseAll maps scaled values back to real units.
func (s MinMaxScaler) InverseAll(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = s.Inverse(v)
	}
	return out
}
