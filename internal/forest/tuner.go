package forest

import (
	"fmt"
	"math"

	"github.com/calderas/fraudsight/internal/common"
	"github.com/calderas/fraudsight/internal/dataset"
)

// TuneConfig parameterizes the greedy features-per-split search.
type TuneConfig struct {
	PositiveLabel        string
	TreeCount            int
	Initial              int
	StepFactor           float64
	ImprovementThreshold float64
	Seed                 int64
	Workers              int
	// OnTrial is invoked after each candidate fit.
	OnTrial func(Trial)
}

// Trial records one candidate evaluation.
type Trial struct {
	FeaturesPerSplit int
	OOBError         float64
}

// TuneResult is the outcome of a search: the winning features-per-split
// value and every trial in evaluation order.
type TuneResult struct {
	Trials    []Trial
	Best      int
	BestError float64
}

// Tune performs a greedy local search for features-per-split. Starting from
// cfg.Initial it multiplies (then divides) the candidate by cfg.StepFactor,
// refitting a cfg.TreeCount forest at each step, and keeps expanding in a
// direction while the relative out-of-bag error reduction is at least
// cfg.ImprovementThreshold, stopping at the bounds 1 and the encoded feature
// count. The search is local, not exhaustive: it can settle on a local
// optimum.
func Tune(train *dataset.Dataset, features []string, target string, cfg TuneConfig) (*TuneResult, error) {
	if cfg.StepFactor <= 1 {
		return nil, fmt.Errorf("%w: step factor must be greater than 1, got %v", common.ErrInvalidConfig, cfg.StepFactor)
	}
	if cfg.Initial < 1 {
		return nil, fmt.Errorf("%w: initial features per split must be at least 1, got %d", common.ErrInvalidConfig, cfg.Initial)
	}

	enc, err := newEncoder(train, features)
	if err != nil {
		return nil, err
	}
	maxFeatures := len(enc.cols)

	fitAt := func(mtry int) (float64, error) {
		f, err := Fit(train, features, target, cfg.TreeCount, mtry, FitOptions{
			PositiveLabel: cfg.PositiveLabel,
			Seed:          cfg.Seed,
			Workers:       cfg.Workers,
		})
		if err != nil {
			return 0, err
		}
		return f.OOBError(), nil
	}

	baseErr, err := fitAt(cfg.Initial)
	if err != nil {
		return nil, err
	}

	result := &TuneResult{
		Best:      cfg.Initial,
		BestError: baseErr,
	}
	record := func(t Trial) {
		result.Trials = append(result.Trials, t)
		if cfg.OnTrial != nil {
			cfg.OnTrial(t)
		}
	}
	record(Trial{FeaturesPerSplit: cfg.Initial, OOBError: baseErr})

	for _, up := range []bool{true, false} {
		cur := cfg.Initial
		for {
			next := step(cur, cfg.StepFactor, up)
			if next < 1 || next > maxFeatures {
				break
			}

			candErr, err := fitAt(next)
			if err != nil {
				return nil, err
			}
			record(Trial{FeaturesPerSplit: next, OOBError: candErr})

			if result.BestError <= 0 {
				break
			}
			improvement := (result.BestError - candErr) / result.BestError
			if improvement < cfg.ImprovementThreshold {
				break
			}
			result.Best = next
			result.BestError = candErr
			cur = next
		}
	}

	return result, nil
}

// step moves the candidate one multiplicative notch, guaranteeing progress
// for factors close to one.
func step(cur int, factor float64, up bool) int {
	if up {
		next := int(math.Ceil(float64(cur) * factor))
		if next == cur {
			next = cur + 1
		}
		return next
	}
	next := int(math.Floor(float64(cur) / factor))
	if next == cur {
		next = cur - 1
	}
	return next
}
