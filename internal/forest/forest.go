// Package forest implements the random forest classifier at the center of
// the pipeline: bootstrap-resampled Gini trees with per-split feature
// subsampling, a running out-of-bag error series, optional held-out error
// tracking, impurity-based feature importance, and a greedy tuner for the
// features-per-split hyperparameter.
package forest

import (
	"fmt"
	"math/rand"
	"runtime"
	"sync"

	"github.com/calderas/fraudsight/internal/common"
	"github.com/calderas/fraudsight/internal/dataset"
)

// Forest is an immutable fitted ensemble. A new tuning attempt produces a
// new Forest rather than mutating an old one.
type Forest struct {
	enc              *encoder
	trees            []*tree
	target           string
	classes          [2]string
	importance       map[string]float64
	oobErr           []float64
	heldoutErr       []float64
	treeCount        int
	featuresPerSplit int
}

// FitOptions carries the optional parts of a fit.
type FitOptions struct {
	// Heldout, when set, enables a held-out error series computed in
	// parallel with the out-of-bag one.
	Heldout *dataset.Dataset
	// PositiveLabel names the target value treated as fraud. Defaults to
	// the minority class.
	PositiveLabel string
	// OnTreeDone is invoked once per finished tree, from worker goroutines.
	OnTreeDone func()
	// Seed drives every pseudo-random draw; identical seeds reproduce the
	// forest exactly.
	Seed int64
	// Workers bounds tree-building parallelism. Defaults to NumCPU. The
	// reported error series is identical at any parallelism degree.
	Workers int
}

// perTree holds one tree's contribution, assembled into the error series
// in tree order after all workers finish so aggregation order never
// depends on scheduling.
type perTree struct {
	tree       *tree
	importance []float64
	oobRows    []int
	oobPred    []int
	heldPred   []int
}

// Fit grows treeCount trees on bootstrap resamples of train, each split
// drawing featuresPerSplit random candidate columns. It fails with
// InsufficientDataError when train has fewer rows than featuresPerSplit or
// a single-class target.
func Fit(train *dataset.Dataset, features []string, target string, treeCount, featuresPerSplit int, opts FitOptions) (*Forest, error) {
	if treeCount < 1 {
		return nil, fmt.Errorf("%w: tree count must be at least 1, got %d", common.ErrInvalidConfig, treeCount)
	}
	if featuresPerSplit < 1 {
		return nil, fmt.Errorf("%w: features per split must be at least 1, got %d", common.ErrInvalidConfig, featuresPerSplit)
	}

	enc, err := newEncoder(train, features)
	if err != nil {
		return nil, err
	}
	x, err := enc.matrix(train, false)
	if err != nil {
		return nil, err
	}
	y, classes, err := encodeTarget(train, target, opts.PositiveLabel)
	if err != nil {
		return nil, err
	}

	n := len(x)
	if n < featuresPerSplit {
		return nil, &common.InsufficientDataError{
			Reason: fmt.Sprintf("%d rows is fewer than %d features per split", n, featuresPerSplit),
		}
	}

	// More candidates than encoded columns degenerates to plain bagging.
	mtry := featuresPerSplit
	if mtry > len(enc.cols) {
		mtry = len(enc.cols)
	}

	var hx [][]float64
	var hy []int
	if opts.Heldout != nil {
		hx, err = enc.matrix(opts.Heldout, true)
		if err != nil {
			return nil, err
		}
		hy, err = encodeHeldoutTarget(opts.Heldout, target, classes)
		if err != nil {
			return nil, err
		}
	}

	results := make([]perTree, treeCount)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > treeCount {
		workers = treeCount
	}

	indexCh := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexCh {
				results[i] = buildTree(x, y, hx, mtry, opts.Seed, i)
				if opts.OnTreeDone != nil {
					opts.OnTreeDone()
				}
			}
		}()
	}
	for i := 0; i < treeCount; i++ {
		indexCh <- i
	}
	close(indexCh)
	wg.Wait()

	f := &Forest{
		enc:              enc,
		trees:            make([]*tree, treeCount),
		target:           target,
		classes:          classes,
		treeCount:        treeCount,
		featuresPerSplit: featuresPerSplit,
	}
	for i := range results {
		f.trees[i] = results[i].tree
	}
	f.oobErr = cumulativeOOBError(results, y)
	if opts.Heldout != nil {
		f.heldoutErr = cumulativeHeldoutError(results, hy)
	}
	f.importance = aggregateImportance(results, enc)

	return f, nil
}

// buildTree grows the i-th tree on its own seeded source so results do not
// depend on which worker picks the index up.
func buildTree(x [][]float64, y []int, hx [][]float64, mtry int, seed int64, i int) perTree {
	rng := rand.New(rand.NewSource(seed + int64(i) + 1))
	n := len(x)

	sample := make([]int, n)
	inBag := make([]bool, n)
	for j := 0; j < n; j++ {
		k := rng.Intn(n)
		sample[j] = k
		inBag[k] = true
	}

	t, importance := growTree(x, y, sample, mtry, rng)

	res := perTree{tree: t, importance: importance}
	for r := 0; r < n; r++ {
		if !inBag[r] {
			res.oobRows = append(res.oobRows, r)
			res.oobPred = append(res.oobPred, t.predict(x[r]))
		}
	}
	if hx != nil {
		res.heldPred = make([]int, len(hx))
		for r := range hx {
			res.heldPred[r] = t.predict(hx[r])
		}
	}
	return res
}

// cumulativeOOBError computes the running out-of-bag error after each tree:
// one value per ensemble size 1..treeCount, each measured over the rows that
// have received at least one out-of-bag vote so far.
func cumulativeOOBError(results []perTree, y []int) []float64 {
	votes := make([][2]int, len(y))
	errs := make([]float64, len(results))

	for i, res := range results {
		for j, r := range res.oobRows {
			votes[r][res.oobPred[j]]++
		}
		wrong, covered := 0, 0
		for r := range votes {
			v := votes[r]
			if v[0]+v[1] == 0 {
				continue
			}
			covered++
			pred := 0
			if v[1] > v[0] {
				pred = 1
			}
			if pred != y[r] {
				wrong++
			}
		}
		if covered > 0 {
			errs[i] = float64(wrong) / float64(covered)
		}
	}
	return errs
}

// cumulativeHeldoutError is the held-out twin of cumulativeOOBError; every
// validation row is voted on by every tree.
func cumulativeHeldoutError(results []perTree, hy []int) []float64 {
	votes := make([][2]int, len(hy))
	errs := make([]float64, len(results))

	for i, res := range results {
		for r, pred := range res.heldPred {
			votes[r][pred]++
		}
		wrong := 0
		for r := range votes {
			pred := 0
			if votes[r][1] > votes[r][0] {
				pred = 1
			}
			if pred != hy[r] {
				wrong++
			}
		}
		if len(hy) > 0 {
			errs[i] = float64(wrong) / float64(len(hy))
		}
	}
	return errs
}

// aggregateImportance folds per-encoded-column impurity decreases back onto
// the original feature columns and normalizes them to sum to one.
func aggregateImportance(results []perTree, enc *encoder) map[string]float64 {
	perFeature := make(map[string]float64, len(enc.features))
	total := 0.0
	for _, res := range results {
		for col, v := range res.importance {
			perFeature[enc.features[enc.colFeat[col]]] += v
			total += v
		}
	}
	if total > 0 {
		for name := range perFeature {
			perFeature[name] /= total
		}
	}
	return perFeature
}

// encodeHeldoutTarget maps held-out target values onto the classes learned
// from training; a value outside them surfaces as UnseenCategoryError.
func encodeHeldoutTarget(ds *dataset.Dataset, target string, classes [2]string) ([]int, error) {
	records, err := ds.Records(target)
	if err != nil {
		return nil, err
	}
	y := make([]int, len(records))
	for i, rec := range records {
		switch rec {
		case classes[0]:
			y[i] = 0
		case classes[1]:
			y[i] = 1
		default:
			return nil, &common.UnseenCategoryError{Feature: target, Value: rec}
		}
	}
	return y, nil
}

// Predict returns one fraud probability per row of ds, in row order: the
// fraction of trees voting for the positive class. Rows carrying a category
// the model never saw fail with UnseenCategoryError rather than silently.
func (f *Forest) Predict(ds *dataset.Dataset) ([]float64, error) {
	if len(f.trees) == 0 {
		return nil, common.ErrNotFitted
	}
	x, err := f.enc.matrix(ds, true)
	if err != nil {
		return nil, err
	}

	probs := make([]float64, len(x))
	for i, row := range x {
		positive := 0
		for _, t := range f.trees {
			if t.predict(row) == 1 {
				positive++
			}
		}
		probs[i] = float64(positive) / float64(len(f.trees))
	}
	return probs, nil
}

// TreeCount returns the ensemble size.
func (f *Forest) TreeCount() int { return f.treeCount }

// FeaturesPerSplit returns the fitted features-per-split hyperparameter.
func (f *Forest) FeaturesPerSplit() int { return f.featuresPerSplit }

// Target returns the target column the forest was fit on.
func (f *Forest) Target() string { return f.target }

// Classes returns the negative and positive target labels, in that order.
func (f *Forest) Classes() (negative, positive string) {
	return f.classes[0], f.classes[1]
}

// Features returns the feature columns the forest was fit on.
func (f *Forest) Features() []string {
	return append([]string(nil), f.enc.features...)
}

// OOBError returns the out-of-bag error of the full ensemble.
func (f *Forest) OOBError() float64 {
	return f.oobErr[len(f.oobErr)-1]
}

// OOBErrors returns the running out-of-bag error series, one value per
// cumulative ensemble size.
func (f *Forest) OOBErrors() []float64 {
	return append([]float64(nil), f.oobErr...)
}

// HeldoutErrors returns the running held-out error series, or nil when no
// held-out set was supplied at fit time.
func (f *Forest) HeldoutErrors() []float64 {
	if f.heldoutErr == nil {
		return nil
	}
	return append([]float64(nil), f.heldoutErr...)
}

// Importance returns the normalized per-feature importance scores.
func (f *Forest) Importance() map[string]float64 {
	out := make(map[string]float64, len(f.importance))
	for name, v := range f.importance {
		out[name] = v
	}
	return out
}

// Levels returns the category levels learned for a categorical feature.
func (f *Forest) Levels(feature string) []string {
	return append([]string(nil), f.enc.levels[feature]...)
}
