package graph

// UnionFind is a disjoint-set forest with path halving and union by size.
type UnionFind struct {
	parent []uint32
	size   []uint32
}

// NewUnionFind creates a UnionFind for n elements.
func NewUnionFind(n uint32) *UnionFind {
	uf := &UnionFind{
		parent: make([]uint32, n),
		size:   make([]uint32, n),
	}
	for i := range n {
		uf.parent[i] = i
		uf.size[i] = 1
	}
	return uf
}

// Find returns the representative of the set containing x.
func (uf *UnionFind) Find(x uint32) uint32 {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

// Union merges the sets containing x and y. Returns false if already same set.
func (uf *UnionFind) Union(x, y uint32) bool {
	rx, ry := uf.Find(x), uf.Find(y)
	if rx == ry {
		return false
	}
	if uf.size[rx] < uf.size[ry] {
		rx, ry = ry, rx
	}
	uf.parent[ry] = rx
	uf.size[rx] += uf.size[ry]
	return true
}

// Size returns the number of elements in x's set.
func (uf *UnionFind) Size(x uint32) uint32 {
	return uf.size[uf.Find(x)]
}

// LargestComponent returns the node indices belonging to the largest
// weakly connected component, in ascending order.
func LargestComponent(g *Graph) []uint32 {
	if g.NumNodes == 0 {
		return nil
	}

	uf := NewUnionFind(g.NumNodes)
	for u := uint32(0); u < g.NumNodes; u++ {
		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			uf.Union(u, g.Head[e])
		}
	}

	// Ties go to the component containing the lowest node index.
	bestRoot, bestSize := uint32(0), uint32(0)
	for i := uint32(0); i < g.NumNodes; i++ {
		root := uf.Find(i)
		if uf.size[root] > bestSize {
			bestRoot, bestSize = root, uf.size[root]
		}
	}

	nodes := make([]uint32, 0, bestSize)
	for i := uint32(0); i < g.NumNodes; i++ {
		if uf.Find(i) == bestRoot {
			nodes = append(nodes, i)
		}
	}
	return nodes
}

// FilterToComponent returns the subgraph induced by nodes. Node order
// follows the order of nodes; edge order within a node is preserved.
// Speed annotations are dropped and must be recomputed.
func FilterToComponent(g *Graph, nodes []uint32) *Graph {
	if len(nodes) == 0 {
		return &Graph{FirstOut: []uint32{0}, Highways: g.Highways}
	}

	const absent = ^uint32(0)
	oldToNew := make([]uint32, g.NumNodes)
	for i := range oldToNew {
		oldToNew[i] = absent
	}
	for newIdx, oldIdx := range nodes {
		oldToNew[oldIdx] = uint32(newIdx)
	}

	numNodes := uint32(len(nodes))
	sub := &Graph{
		NumNodes: numNodes,
		FirstOut: make([]uint32, numNodes+1),
		NodeID:   make([]int64, numNodes),
		NodeLat:  make([]float64, numNodes),
		NodeLon:  make([]float64, numNodes),
		Highways: g.Highways,
	}

	for newU, oldU := range nodes {
		sub.NodeID[newU] = g.NodeID[oldU]
		sub.NodeLat[newU] = g.NodeLat[oldU]
		sub.NodeLon[newU] = g.NodeLon[oldU]

		// Visiting sources in new-index order keeps the CSR layout valid
		// without a separate counting pass.
		start, end := g.EdgesFrom(oldU)
		for e := start; e < end; e++ {
			newV := oldToNew[g.Head[e]]
			if newV == absent {
				continue
			}
			sub.Head = append(sub.Head, newV)
			sub.Length = append(sub.Length, g.Length[e])
			sub.MaxSpeed = append(sub.MaxSpeed, g.MaxSpeed[e])
			sub.HighwayIdx = append(sub.HighwayIdx, g.HighwayIdx[e])
		}
		sub.FirstOut[newU+1] = uint32(len(sub.Head))
	}
	sub.NumEdges = uint32(len(sub.Head))

	return sub
}
