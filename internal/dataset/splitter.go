package dataset

import (
	"math"
	"math/rand"
	"sort"

	"github.com/calderas/fraudsight/internal/common"
)

// Split deterministically partitions the rows of ds into two new Datasets.
// A seeded pseudo-random permutation assigns the first round(proportion*N)
// permuted rows to the first partition and the rest to the second. The same
// seed, proportion, and input row order always yield the same membership;
// every row lands in exactly one partition.
func Split(ds *Dataset, proportion float64, seed int64) (*Dataset, *Dataset, error) {
	if proportion <= 0 || proportion >= 1 {
		return nil, nil, &common.InvalidProportionError{Proportion: proportion}
	}

	n := ds.Rows()
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	take := int(math.Round(proportion * float64(n)))

	first := append([]int(nil), perm[:take]...)
	second := append([]int(nil), perm[take:]...)

	// Keep original row order inside each partition.
	sort.Ints(first)
	sort.Ints(second)

	return ds.subset(first), ds.subset(second), nil
}
