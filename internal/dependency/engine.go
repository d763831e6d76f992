package dependency

import (
	"fmt"
	"sort"

	"github.com/eslam-almahdy/RSS-1.0/internal"
)

// DefaultMaxDepth bounds chain discovery when the caller does not ask for a
// specific depth.
const DefaultMaxDepth = 5

// Graph is an in-memory adjacency view over the stored edges, built per
// analysis call. Traversals are pure reads.
type Graph struct {
	outgoing map[string][]*Interdependency
	incoming map[string][]*Interdependency
}

func NewGraph(edges []*Interdependency) *Graph {
	g := &Graph{
		outgoing: make(map[string][]*Interdependency),
		incoming: make(map[string][]*Interdependency),
	}
	for _, e := range edges {
		g.outgoing[e.SourceRiskID] = append(g.outgoing[e.SourceRiskID], e)
		g.incoming[e.TargetRiskID] = append(g.incoming[e.TargetRiskID], e)
	}
	return g
}

// Downstream lists the risks directly affected by riskID.
func (g *Graph) Downstream(riskID string) []string {
	edges := g.outgoing[riskID]
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.TargetRiskID)
	}
	return out
}

// Upstream lists the risks that directly act on riskID.
func (g *Graph) Upstream(riskID string) []string {
	edges := g.incoming[riskID]
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.SourceRiskID)
	}
	return out
}

// Edge returns the first stored edge from source to target, or nil.
func (g *Graph) Edge(source, target string) *Interdependency {
	for _, e := range g.outgoing[source] {
		if e.TargetRiskID == target {
			return e
		}
	}
	return nil
}

// chainFrame is one unit of pending traversal work. Each frame owns its
// path and visited set, so the cycle guard is scoped to a single chain:
// a node may reappear across distinct chains but never twice within one.
type chainFrame struct {
	node    string
	path    []string
	visited map[string]bool
	depth   int
}

// FindChains explores outgoing edges depth-first from source and returns
// every maximal chain. A branch ends when it reaches maxDepth, runs out of
// outgoing edges, or every next hop is already on its own path. Cyclic data
// therefore terminates without losing legitimate alternate routes.
func (g *Graph) FindChains(source string, maxDepth int) [][]string {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	var chains [][]string
	stack := []chainFrame{{
		node:    source,
		path:    []string{source},
		visited: map[string]bool{source: true},
		depth:   0,
	}}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if frame.depth >= maxDepth {
			chains = append(chains, frame.path)
			continue
		}

		edges := g.outgoing[frame.node]
		extended := false
		// Push in reverse so chains come out in edge insertion order.
		for i := len(edges) - 1; i >= 0; i-- {
			next := edges[i].TargetRiskID
			if frame.visited[next] {
				continue
			}
			extended = true

			path := make([]string, len(frame.path), len(frame.path)+1)
			copy(path, frame.path)
			path = append(path, next)

			visited := make(map[string]bool, len(frame.visited)+1)
			for k := range frame.visited {
				visited[k] = true
			}
			visited[next] = true

			stack = append(stack, chainFrame{
				node:    next,
				path:    path,
				visited: visited,
				depth:   frame.depth + 1,
			})
		}

		if !extended {
			chains = append(chains, frame.path)
		}
	}

	return chains
}

// AmplifiedImpact compounds the base score of the chain head through the
// multiplier of every consecutive edge. A gap between consecutive chain
// nodes means the chain does not describe this graph; that is reported as a
// consistency failure rather than treated as multiplier 1.
func (g *Graph) AmplifiedImpact(chain []string, baseScore float64) (float64, error) {
	if len(chain) == 0 {
		return 0, internal.NewValidationFieldError("chain", "chain must contain at least one risk id", internal.ErrCodeValidationFailed)
	}

	amplified := baseScore
	for i := 0; i < len(chain)-1; i++ {
		edge := g.Edge(chain[i], chain[i+1])
		if edge == nil {
			return 0, internal.NewConsistencyError(
				fmt.Sprintf("no edge from %s to %s", chain[i], chain[i+1]),
				internal.ErrCodeDanglingEdge)
		}
		amplified *= edge.ImpactMultiplier
	}
	return amplified, nil
}

// Centrality scores one risk by how widely it propagates: direct edges
// count fully, second-hop edges at half weight.
type Centrality struct {
	RiskID string  `json:"risk_id"`
	Score  float64 `json:"centrality_score"`
}

// CriticalRisks ranks source risks by centrality, descending, returning
// those strictly above the threshold.
func (g *Graph) CriticalRisks(threshold float64) []Centrality {
	out := make([]Centrality, 0, len(g.outgoing))
	for source, edges := range g.outgoing {
		indirect := 0
		for _, e := range edges {
			indirect += len(g.outgoing[e.TargetRiskID])
		}
		score := float64(len(edges)) + 0.5*float64(indirect)
		if score > threshold {
			out = append(out, Centrality{RiskID: source, Score: score})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].RiskID < out[j].RiskID
	})
	return out
}
