package routing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"drive_router/pkg/graph"
)

const noNode = ^uint32(0) // sentinel for "no node"

// cancelCheckInterval is how many settled nodes pass between context checks.
const cancelCheckInterval = 1024

var (
	// ErrNoRoute is returned when the destination is unreachable from the origin.
	ErrNoRoute = errors.New("no route found")
	// ErrInvalidNode is returned for node indices outside the graph.
	ErrInvalidNode = errors.New("invalid node")
)

// ShortestPath returns the node sequence of the minimum total travel time
// path from orig to dest. g must be annotated. When orig == dest the result
// is the single node.
func ShortestPath(ctx context.Context, g *graph.Graph, orig, dest uint32) ([]uint32, error) {
	if orig >= g.NumNodes || dest >= g.NumNodes {
		return nil, fmt.Errorf("%w: %d or %d not in [0, %d)", ErrInvalidNode, orig, dest, g.NumNodes)
	}
	if !g.Annotated() {
		return nil, errors.New("graph has no travel times")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dist := make([]float64, g.NumNodes)
	pred := make([]uint32, g.NumNodes)
	for i := range dist {
		dist[i] = math.Inf(1)
		pred[i] = noNode
	}
	dist[orig] = 0

	var pq MinHeap
	pq.Push(orig, 0)

	settled := 0
	for pq.Len() > 0 {
		item := pq.Pop()
		u := item.Node
		if item.Dist > dist[u] {
			continue // stale entry
		}
		if u == dest {
			break
		}

		settled++
		if settled%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		start, end := g.EdgesFrom(u)
		for e := start; e < end; e++ {
			v := g.Head[e]
			nd := item.Dist + g.TravelTime[e]
			if nd < dist[v] {
				dist[v] = nd
				pred[v] = u
				pq.Push(v, nd)
			}
		}
	}

	if math.IsInf(dist[dest], 1) {
		return nil, ErrNoRoute
	}

	var path []uint32
	for n := dest; n != noNode; n = pred[n] {
		path = append(path, n)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}
