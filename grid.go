package main

import (
	"fmt"
	"math"
)

// rayStepCap bounds directional ray walks. Generous for any board size the
// campaign generates.
const rayStepCap = 50

// DefaultHexSize is the hex edge length in pixels used for campaign boards.
const DefaultHexSize = 40.0

// VertexKind distinguishes hex corners from hex centers.
type VertexKind int

const (
	KindCorner VertexKind = 0
	KindCenter VertexKind = 1
)

// Vertex is a playable point on the lattice. Immutable once the grid is built.
type Vertex struct {
	ID   string
	X, Y float64
	Kind VertexKind
}

// Adjacency maps a vertex id to its directly reachable neighbours,
// in direction order.
type Adjacency map[string][]string

// RayTable maps a vertex id to six direction-ordered vertex sequences.
// Computed once per board, read-only afterwards.
type RayTable map[string]*[6][]string

// Grid is the vertex lattice for one board: corners and hex centers,
// adjacency, and the per-vertex directional ray table.
type Grid struct {
	Cols, Rows int
	Size       float64

	Vertices map[string]*Vertex
	// Order lists vertex ids in construction order. Hazard generation
	// shuffles this list, so it must be identical run to run.
	Order []string
	Adj   Adjacency
	// Next holds the direction-indexed adjacency edge, "" when absent.
	Next map[string]*[6]string
	Rays RayTable
}

// vertexKey encodes a vertex identity from its rounded pixel position,
// prefixed by kind so a corner and a center can never collide.
func vertexKey(kind VertexKind, x, y float64) string {
	prefix := "c"
	if kind == KindCenter {
		prefix = "h"
	}
	return fmt.Sprintf("%s:%d,%d", prefix, int(math.Round(x)), int(math.Round(y)))
}

// dirVector returns the unit step for direction d (0-5), 60 degrees apart.
func dirVector(d int) (float64, float64) {
	theta := math.Pi / 3 * float64(d)
	return math.Cos(theta), math.Sin(theta)
}

// BuildGrid lays out a flat-top hex board with the given column and row
// counts and hex size, and derives adjacency and rays. Construction is total
// for any positive input.
func BuildGrid(cols, rows int, size float64) *Grid {
	g := &Grid{
		Cols:     cols,
		Rows:     rows,
		Size:     size,
		Vertices: make(map[string]*Vertex),
		Adj:      make(Adjacency),
		Next:     make(map[string]*[6]string),
		Rays:     make(RayTable),
	}

	// Offset rectangular center layout: columns 1.5*size apart, rows
	// sqrt(3)*size apart, odd columns shifted down by half a row.
	rowSpacing := math.Sqrt(3) * size
	margin := 2 * size

	register := func(kind VertexKind, x, y float64) string {
		id := vertexKey(kind, x, y)
		if _, ok := g.Vertices[id]; !ok {
			g.Vertices[id] = &Vertex{ID: id, X: x, Y: y, Kind: kind}
			g.Order = append(g.Order, id)
		}
		return id
	}

	for col := 0; col < cols; col++ {
		for row := 0; row < rows; row++ {
			cx := margin + float64(col)*1.5*size
			cy := margin + float64(row)*rowSpacing
			if col%2 == 1 {
				cy += rowSpacing / 2
			}
			register(KindCenter, cx, cy)
			for i := 0; i < 6; i++ {
				dx, dy := dirVector(i)
				register(KindCorner, cx+dx*size, cy+dy*size)
			}
		}
	}

	// Adjacency: step each vertex by the six unit vectors and keep the
	// directions that land on a known vertex. The same rule yields
	// corner-corner and corner-center edges, no kind special-casing.
	for _, id := range g.Order {
		v := g.Vertices[id]
		next := &[6]string{}
		for d := 0; d < 6; d++ {
			dx, dy := dirVector(d)
			nx, ny := v.X+dx*size, v.Y+dy*size
			for _, kind := range []VertexKind{KindCorner, KindCenter} {
				if n, ok := g.Vertices[vertexKey(kind, nx, ny)]; ok {
					next[d] = n.ID
					g.Adj[id] = append(g.Adj[id], n.ID)
					break
				}
			}
		}
		g.Next[id] = next
	}

	// Rays: directional graph walking over the Next table, not geometric
	// stepping, so corner/center alternation falls out of the edges.
	for _, id := range g.Order {
		rays := &[6][]string{}
		for d := 0; d < 6; d++ {
			cur := id
			for step := 0; step < rayStepCap; step++ {
				nxt := g.Next[cur][d]
				if nxt == "" {
					break
				}
				rays[d] = append(rays[d], nxt)
				cur = nxt
			}
		}
		g.Rays[id] = rays
	}

	return g
}

// Centers returns the hex-center vertex ids in construction order.
func (g *Grid) Centers() []string {
	var out []string
	for _, id := range g.Order {
		if g.Vertices[id].Kind == KindCenter {
			out = append(out, id)
		}
	}
	return out
}
