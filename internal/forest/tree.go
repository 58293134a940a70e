package forest

import (
	"math/rand"
	"sort"
)

// treeNode is one node of a flattened decision tree. Child offsets are
// relative to the node's own index, so subtrees can be appended verbatim.
type treeNode struct {
	col       int
	threshold float64
	left      int
	right     int
	class     int
	leaf      bool
}

type tree struct {
	nodes []treeNode
}

// predict walks the tree for a single encoded row.
func (t *tree) predict(row []float64) int {
	idx := 0
	for {
		node := t.nodes[idx]
		if node.leaf {
			return node.class
		}
		if row[node.col] <= node.threshold {
			idx += node.left
		} else {
			idx += node.right
		}
	}
}

// treeGrower carries the shared state of one tree's construction.
type treeGrower struct {
	x          [][]float64
	y          []int
	mtry       int
	rng        *rand.Rand
	importance []float64
	nRoot      float64
}

// growTree builds a single unpruned tree on the given bootstrap rows and
// returns it along with the per-encoded-column impurity decrease it observed.
func growTree(x [][]float64, y []int, rows []int, mtry int, rng *rand.Rand) (*tree, []float64) {
	g := &treeGrower{
		x:          x,
		y:          y,
		mtry:       mtry,
		rng:        rng,
		importance: make([]float64, len(x[0])),
		nRoot:      float64(len(rows)),
	}
	return &tree{nodes: g.build(rows)}, g.importance
}

func (g *treeGrower) build(rows []int) []treeNode {
	class := g.majorityClass(rows)
	if len(rows) < 2 || g.isPure(rows) {
		return leafNode(class)
	}

	col, threshold, ok := g.bestSplit(rows)
	if !ok {
		return leafNode(class)
	}

	var left, right []int
	for _, r := range rows {
		if g.x[r][col] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return leafNode(class)
	}

	// Mean-decrease-in-impurity contribution, weighted by the fraction of
	// bootstrap rows reaching this node.
	parent := g.gini(rows)
	wl := float64(len(left)) / float64(len(rows))
	wr := float64(len(right)) / float64(len(rows))
	decrease := parent - wl*g.gini(left) - wr*g.gini(right)
	g.importance[col] += (float64(len(rows)) / g.nRoot) * decrease

	leftNodes := g.build(left)
	rightNodes := g.build(right)

	nodes := make([]treeNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, treeNode{
		col:       col,
		threshold: threshold,
		left:      1,
		right:     1 + len(leftNodes),
		class:     class,
	})
	nodes = append(nodes, leftNodes...)
	nodes = append(nodes, rightNodes...)
	return nodes
}

// bestSplit samples mtry candidate columns and returns the column and
// threshold with the lowest weighted Gini impurity. The sweep sorts rows by
// value once per column and evaluates midpoints between distinct values.
func (g *treeGrower) bestSplit(rows []int) (int, float64, bool) {
	cols := g.rng.Perm(len(g.x[0]))
	if g.mtry < len(cols) {
		cols = cols[:g.mtry]
	}

	parent := g.gini(rows)
	bestCol := -1
	bestThreshold := 0.0
	bestScore := parent - 1e-12

	total := [2]int{}
	for _, r := range rows {
		total[g.y[r]]++
	}
	n := float64(len(rows))

	sorted := make([]int, len(rows))
	for _, col := range cols {
		copy(sorted, rows)
		sort.Slice(sorted, func(i, j int) bool {
			return g.x[sorted[i]][col] < g.x[sorted[j]][col]
		})

		leftCounts := [2]int{}
		for i := 0; i < len(sorted)-1; i++ {
			leftCounts[g.y[sorted[i]]]++
			v, next := g.x[sorted[i]][col], g.x[sorted[i+1]][col]
			if v == next {
				continue
			}
			nl := float64(i + 1)
			nr := n - nl
			rightCounts := [2]int{total[0] - leftCounts[0], total[1] - leftCounts[1]}
			score := (nl/n)*giniCounts(leftCounts, nl) + (nr/n)*giniCounts(rightCounts, nr)
			if score < bestScore {
				bestScore = score
				bestCol = col
				bestThreshold = (v + next) / 2
			}
		}
	}

	if bestCol == -1 {
		return 0, 0, false
	}
	return bestCol, bestThreshold, true
}

func (g *treeGrower) gini(rows []int) float64 {
	counts := [2]int{}
	for _, r := range rows {
		counts[g.y[r]]++
	}
	return giniCounts(counts, float64(len(rows)))
}

func giniCounts(counts [2]int, n float64) float64 {
	if n == 0 {
		return 0
	}
	p0 := float64(counts[0]) / n
	p1 := float64(counts[1]) / n
	return 1 - p0*p0 - p1*p1
}

func (g *treeGrower) majorityClass(rows []int) int {
	counts := [2]int{}
	for _, r := range rows {
		counts[g.y[r]]++
	}
	if counts[1] > counts[0] {
		return 1
	}
	return 0
}

func (g *treeGrower) isPure(rows []int) bool {
	first := g.y[rows[0]]
	for _, r := range rows[1:] {
		if g.y[r] != first {
			return false
		}
	}
	return true
}

func leafNode(class int) []treeNode {
	return []treeNode{{col: -1, left: -1, right: -1, class: class, leaf: true}}
}
