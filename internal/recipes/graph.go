// Package recipes guards the sub-recipe graph. Recipes reference each other
// through SUB_RECIPE lines and those references must never form a cycle,
// otherwise costing and demand expansion would not terminate.
package recipes

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCycle is returned when an edge would make a recipe (indirectly) contain itself.
var ErrCycle = errors.New("recipes: sub-recipe cycle")

// Graph is the directed recipe -> sub-recipe graph.
type Graph struct {
	edges map[uint][]uint
}

func NewGraph() *Graph {
	return &Graph{edges: make(map[uint][]uint)}
}

func (g *Graph) ensure(id uint) {
	if _, ok := g.edges[id]; !ok {
		g.edges[id] = nil
	}
}

// AddEdge records that parent uses child as a sub-recipe. It does not validate.
func (g *Graph) AddEdge(parent, child uint) {
	g.ensure(parent)
	g.ensure(child)
	for _, existing := range g.edges[parent] {
		if existing == child {
			return
		}
	}
	g.edges[parent] = append(g.edges[parent], child)
}

// WouldCreateCycle reports whether adding parent -> child closes a cycle.
func (g *Graph) WouldCreateCycle(parent, child uint) bool {
	if parent == child {
		return true
	}
	return g.reachable(child, parent)
}

// CheckEdge returns ErrCycle when parent -> child may not be added.
func (g *Graph) CheckEdge(parent, child uint) error {
	if g.WouldCreateCycle(parent, child) {
		return fmt.Errorf("%w: recipe %d cannot use recipe %d", ErrCycle, parent, child)
	}
	return nil
}

func (g *Graph) reachable(from, to uint) bool {
	seen := map[uint]bool{from: true}
	stack := []uint{from}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node == to {
			return true
		}
		for _, next := range g.edges[node] {
			if !seen[next] {
				seen[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// FindCycle returns one cycle as a path of recipe IDs (first == last), or nil.
func (g *Graph) FindCycle() []uint {
	const (
		white = iota
		grey
		black
	)
	color := make(map[uint]int, len(g.edges))
	var path []uint
	var found []uint

	var visit func(id uint) bool
	visit = func(id uint) bool {
		color[id] = grey
		path = append(path, id)
		for _, next := range g.edges[id] {
			switch color[next] {
			case grey:
				for i, p := range path {
					if p == next {
						found = append(append([]uint{}, path[i:]...), next)
						break
					}
				}
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		return false
	}

	for _, id := range g.nodes() {
		if color[id] == white && visit(id) {
			return found
		}
	}
	return nil
}

// Depth is the length of the longest sub-recipe chain below id. A recipe with
// no sub-recipes has depth 0. It returns ErrCycle when the chain never ends.
func (g *Graph) Depth(id uint) (int, error) {
	memo := make(map[uint]int)
	onPath := make(map[uint]bool)

	var depth func(uint) (int, error)
	depth = func(node uint) (int, error) {
		if d, ok := memo[node]; ok {
			return d, nil
		}
		if onPath[node] {
			return 0, fmt.Errorf("%w: recipe %d", ErrCycle, node)
		}
		onPath[node] = true
		best := 0
		for _, next := range g.edges[node] {
			d, err := depth(next)
			if err != nil {
				return 0, err
			}
			if d+1 > best {
				best = d + 1
			}
		}
		onPath[node] = false
		memo[node] = best
		return best, nil
	}

	return depth(id)
}

func (g *Graph) nodes() []uint {
	ids := make([]uint, 0, len(g.edges))
	for id := range g.edges {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// MaxDepth is the deepest sub-recipe chain in the graph. It returns ErrCycle,
// naming the offending path, when the graph is not acyclic.
func (g *Graph) MaxDepth() (int, error) {
	if cycle := g.FindCycle(); cycle != nil {
		return 0, fmt.Errorf("%w: %v", ErrCycle, cycle)
	}
	deepest := 0
	for _, id := range g.nodes() {
		d, err := g.Depth(id)
		if err != nil {
			return 0, err
		}
		if d > deepest {
			deepest = d
		}
	}
	return deepest, nil
}
