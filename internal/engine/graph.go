package engine

import (
	"github.com/JohnPitter/agenthub-sub003/internal/domain"
)

// Graph — неизменяемое индексированное представление WorkflowGraph.
//
// Индексы (узел по ID, исходящие и входящие рёбра по ID узла)
// строятся один раз за O(V+E) и дальше только читаются, поэтому
// Graph можно свободно разделять между горутинами.
type Graph struct {
	spec *domain.WorkflowGraph

	nodes    map[string]*domain.Node
	outgoing map[string][]domain.Edge
	incoming map[string][]domain.Edge
}

// NewGraph строит индексированный Graph из документа WorkflowGraph.
//
// Индексы строятся толерантно: рёбра с несуществующими концами
// попадают в индексы как есть, их отлавливает Validate.
func NewGraph(spec *domain.WorkflowGraph) *Graph {
	g := &Graph{
		spec:     spec,
		nodes:    make(map[string]*domain.Node, len(spec.Nodes)),
		outgoing: make(map[string][]domain.Edge),
		incoming: make(map[string][]domain.Edge),
	}

	for i := range spec.Nodes {
		node := &spec.Nodes[i]
		g.nodes[node.ID] = node
	}

	for _, edge := range spec.Edges {
		g.outgoing[edge.Source] = append(g.outgoing[edge.Source], edge)
		g.incoming[edge.Target] = append(g.incoming[edge.Target], edge)
	}

	return g
}

// Node возвращает узел по ID или nil, если узла нет.
func (g *Graph) Node(id string) *domain.Node {
	return g.nodes[id]
}

// Outgoing возвращает исходящие рёбра узла в порядке объявления.
func (g *Graph) Outgoing(id string) []domain.Edge {
	return g.outgoing[id]
}

// Incoming возвращает входящие рёбра узла в порядке объявления.
func (g *Graph) Incoming(id string) []domain.Edge {
	return g.incoming[id]
}

// Nodes возвращает узлы графа в порядке объявления.
func (g *Graph) Nodes() []domain.Node {
	return g.spec.Nodes
}

// Edges возвращает рёбра графа в порядке объявления.
func (g *Graph) Edges() []domain.Edge {
	return g.spec.Edges
}

// Size возвращает количество узлов.
func (g *Graph) Size() int {
	return len(g.spec.Nodes)
}

// EntryNodes возвращает узлы без входящих рёбер в порядке объявления.
// С них начинается выполнение валидного графа.
func (g *Graph) EntryNodes() []*domain.Node {
	entries := make([]*domain.Node, 0)
	for i := range g.spec.Nodes {
		node := &g.spec.Nodes[i]
		if len(g.incoming[node.ID]) == 0 {
			entries = append(entries, node)
		}
	}
	return entries
}
