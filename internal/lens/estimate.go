package lens

import (
	"github.com/montanaflynn/stats"
)

// EffectEstimate is the per-variable aggregate over Monte Carlo samples.
// SampleCount is the number of valid samples that entered the aggregate;
// Undefined is set when every sample for the variable was invalid.
type EffectEstimate struct {
	Mean        float64   `json:"mean"`
	Std         float64   `json:"std"`
	SampleCount int       `json:"sample_count"`
	Samples     []float64 `json:"samples,omitempty"`
	Undefined   bool      `json:"undefined,omitempty"`
}

// aggregate reduces a variable's valid sample values to an estimate.
func aggregate(values []float64, keepSamples bool) EffectEstimate {
	if len(values) == 0 {
		return EffectEstimate{Undefined: true}
	}

	mean, err := stats.Mean(values)
	if err != nil {
		return EffectEstimate{Undefined: true}
	}
	std := 0.0
	if len(values) > 1 {
		std, err = stats.StandardDeviationSample(values)
		if err != nil {
			return EffectEstimate{Undefined: true}
		}
	}

	est := EffectEstimate{Mean: mean, Std: std, SampleCount: len(values)}
	if keepSamples {
		est.Samples = values
	}
	return est
}

// pinned is the estimate for an intervened variable: the do-operator holds
// it at the given value for every sample.
func pinned(value float64, samples int) EffectEstimate {
	return EffectEstimate{Mean: value, Std: 0, SampleCount: samples}
}
