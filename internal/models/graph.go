package models

// GraphNode is a rendering-agnostic node of the transitive risk graph.
type GraphNode struct {
	ID    string `json:"id"`
	Color string `json:"color"`
}

// GraphEdge connects a blacklisted node to the queried target. The label
// carries the shortest discovered hop distance, e.g. "2 hop".
type GraphEdge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Label string `json:"label"`
}

// RiskGraph is the result of a transitive blacklist-exposure query.
// A graph with a single node means no exposure was found within the hop
// bound; callers must not treat that as an error.
type RiskGraph struct {
	Nodes  []GraphNode       `json:"nodes"`
	Edges  []GraphEdge       `json:"edges"`
	Legend map[string]string `json:"legend"`
}
