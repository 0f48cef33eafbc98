// Package cluster groups catalog records whose fingerprints are close enough
// to be the same poster. Concurrent submissions can leave such groups behind.
package cluster

import (
	"slices"

	"github.com/agenthands/posterlens/internal/core/model"
)

type Detector interface {
	Detect(records []model.CatalogRecord) [][]model.CatalogRecord
}

// Edge links two records by index. Weight grows as the distance shrinks.
type Edge struct {
	A, B   int
	Weight int
}

// Edges compares every pair of fingerprinted records and keeps pairs within
// maxDistance. Records without a fingerprint have no edges.
func Edges(records []model.CatalogRecord, maxDistance int) []Edge {
	var edges []Edge
	for i := range records {
		if !records[i].HasFingerprint() {
			continue
		}
		for j := i + 1; j < len(records); j++ {
			if !records[j].HasFingerprint() {
				continue
			}
			d := records[i].Fingerprint.Distance(*records[j].Fingerprint)
			if d <= maxDistance {
				edges = append(edges, Edge{A: i, B: j, Weight: maxDistance + 1 - d})
			}
		}
	}
	return edges
}

func adjacency(n int, edges []Edge) []map[int]int {
	adj := make([]map[int]int, n)
	for i := range adj {
		adj[i] = make(map[int]int)
	}
	for _, e := range edges {
		adj[e.A][e.B] += e.Weight
		adj[e.B][e.A] += e.Weight
	}
	return adj
}

// group turns a label per record into clusters of two or more, ordered by
// their earliest record, members in catalog order.
func group(records []model.CatalogRecord, labels []int) [][]model.CatalogRecord {
	members := make(map[int][]int)
	var order []int
	for i, l := range labels {
		if _, ok := members[l]; !ok {
			order = append(order, l)
		}
		members[l] = append(members[l], i)
	}

	var out [][]model.CatalogRecord
	for _, l := range order {
		idx := members[l]
		if len(idx) < 2 {
			continue
		}
		c := make([]model.CatalogRecord, len(idx))
		for k, i := range idx {
			c[k] = records[i]
		}
		out = append(out, c)
	}
	return out
}

// Components groups records connected by any chain of close fingerprints.
type Components struct {
	MaxDistance int
}

func (d Components) Detect(records []model.CatalogRecord) [][]model.CatalogRecord {
	adj := adjacency(len(records), Edges(records, d.MaxDistance))
	labels := make([]int, len(records))
	for i := range labels {
		labels[i] = -1
	}
	for i := range records {
		if labels[i] >= 0 {
			continue
		}
		stack := []int{i}
		labels[i] = i
		for len(stack) > 0 {
			u := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for v := range adj[u] {
				if labels[v] < 0 {
					labels[v] = i
					stack = append(stack, v)
				}
			}
		}
	}
	return group(records, labels)
}

// LabelPropagation splits loosely chained groups that Components would
// merge. Each record adopts the label with the largest total edge weight
// among its neighbours until nothing changes.
type LabelPropagation struct {
	MaxDistance   int
	MaxIterations int
}

const defaultMaxIterations = 20

func (d LabelPropagation) Detect(records []model.CatalogRecord) [][]model.CatalogRecord {
	adj := adjacency(len(records), Edges(records, d.MaxDistance))
	labels := make([]int, len(records))
	for i := range labels {
		labels[i] = i
	}

	maxIter := d.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}
	for iter := 0; iter < maxIter; iter++ {
		changed := 0
		for u := range records {
			if len(adj[u]) == 0 {
				continue
			}
			weights := make(map[int]int)
			best := 0
			for v, w := range adj[u] {
				weights[labels[v]] += w
				best = max(best, weights[labels[v]])
			}
			if weights[labels[u]] == best {
				continue
			}
			var candidates []int
			for l, w := range weights {
				if w == best {
					candidates = append(candidates, l)
				}
			}
			labels[u] = slices.Min(candidates)
			changed++
		}
		if changed == 0 {
			break
		}
	}
	return group(records, labels)
}
