// Package graphrisk answers transitive exposure queries: which blacklisted
// wallets are reachable from a target within a bounded number of hops, and
// what does that exposure look like as a renderable graph.
package graphrisk

import (
	"context"
	"fmt"
	"sort"

	"github.com/wallet-sentinel/internal/config"
	"github.com/wallet-sentinel/internal/models"
	"github.com/wallet-sentinel/internal/storage"
)

// GraphReader is the traversal surface of the graph store.
type GraphReader interface {
	NodeExists(ctx context.Context, address string) (bool, error)
	Neighbors(ctx context.Context, address string) ([]string, error)
	IsBlacklisted(ctx context.Context, address string) (bool, error)
}

// Exposure is one blacklisted wallet reachable from the target, with the
// length of the shortest undirected path to it.
type Exposure struct {
	Address string `json:"address"`
	Hops    int    `json:"hops"`
}

// Grapher runs bounded-depth blacklist reachability over the wallet graph.
type Grapher struct {
	graph GraphReader
	cfg   config.TraversalConfig
}

// NewGrapher creates a transitive risk grapher
func NewGrapher(graph GraphReader, cfg config.TraversalConfig) *Grapher {
	if cfg.MaxHops < 1 {
		cfg.MaxHops = 1
	}
	if cfg.ResultLimit < 1 {
		cfg.ResultLimit = 1
	}
	return &Grapher{graph: graph, cfg: cfg}
}

// Exposures breadth-first searches the undirected graph out to the hop
// limit and returns every blacklisted wallet found, each at its shortest
// hop distance, sorted by distance then address and capped at the result
// limit. The target itself is never reported, even when blacklisted.
func (g *Grapher) Exposures(ctx context.Context, target string) ([]Exposure, error) {
	target = storage.NormalizeAddress(target)
	if err := storage.ValidateAddress(target); err != nil {
		return nil, err
	}

	exists, err := g.graph.NodeExists(ctx, target)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	visited := map[string]struct{}{target: {}}
	frontier := []string{target}

	var exposures []Exposure
	for hop := 1; hop <= g.cfg.MaxHops && len(frontier) > 0; hop++ {
		var next []string
		for _, node := range frontier {
			neighbors, err := g.graph.Neighbors(ctx, node)
			if err != nil {
				return nil, fmt.Errorf("failed to expand %s: %w", node, err)
			}
			for _, neighbor := range neighbors {
				if _, seen := visited[neighbor]; seen {
					continue
				}
				visited[neighbor] = struct{}{}
				next = append(next, neighbor)

				blacklisted, err := g.graph.IsBlacklisted(ctx, neighbor)
				if err != nil {
					return nil, err
				}
				if blacklisted {
					exposures = append(exposures, Exposure{Address: neighbor, Hops: hop})
				}
			}
		}
		frontier = next
	}

	sort.Slice(exposures, func(i, j int) bool {
		if exposures[i].Hops != exposures[j].Hops {
			return exposures[i].Hops < exposures[j].Hops
		}
		return exposures[i].Address < exposures[j].Address
	})

	if len(exposures) > g.cfg.ResultLimit {
		exposures = exposures[:g.cfg.ResultLimit]
	}

	return exposures, nil
}

// BuildGraph renders the exposure set as a graph: the target node plus one
// node per blacklisted wallet, each with an edge toward the target labeled
// with its hop distance.
func (g *Grapher) BuildGraph(ctx context.Context, target string) (*models.RiskGraph, error) {
	exposures, err := g.Exposures(ctx, target)
	if err != nil {
		return nil, err
	}

	target = storage.NormalizeAddress(target)
	graph := &models.RiskGraph{
		Nodes: []models.GraphNode{{ID: target, Color: colorTarget}},
		Edges: []models.GraphEdge{},
		Legend: map[string]string{
			"target":      colorTarget,
			"blacklisted": colorBlacklisted,
		},
	}

	for _, exp := range exposures {
		graph.Nodes = append(graph.Nodes, models.GraphNode{ID: exp.Address, Color: colorBlacklisted})
		graph.Edges = append(graph.Edges, models.GraphEdge{
			From:  exp.Address,
			To:    target,
			Label: fmt.Sprintf("%d hop", exp.Hops),
		})
	}

	return graph, nil
}

// Neighborhood renders the target and its direct neighbors. Neighbors keep
// a stable hash-derived color unless blacklisted.
func (g *Grapher) Neighborhood(ctx context.Context, target string) (*models.RiskGraph, error) {
	target = storage.NormalizeAddress(target)
	if err := storage.ValidateAddress(target); err != nil {
		return nil, err
	}

	neighbors, err := g.graph.Neighbors(ctx, target)
	if err != nil {
		return nil, err
	}
	sort.Strings(neighbors)

	graph := &models.RiskGraph{
		Nodes: []models.GraphNode{{ID: target, Color: colorTarget}},
		Edges: []models.GraphEdge{},
		Legend: map[string]string{
			"target":      colorTarget,
			"blacklisted": colorBlacklisted,
		},
	}

	for _, neighbor := range neighbors {
		color := nodeColor(neighbor)
		blacklisted, err := g.graph.IsBlacklisted(ctx, neighbor)
		if err != nil {
			return nil, err
		}
		if blacklisted {
			color = colorBlacklisted
		}

		graph.Nodes = append(graph.Nodes, models.GraphNode{ID: neighbor, Color: color})
		graph.Edges = append(graph.Edges, models.GraphEdge{
			From:  target,
			To:    neighbor,
			Label: "1 hop",
		})
	}

	return graph, nil
}
