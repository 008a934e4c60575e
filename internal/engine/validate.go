package engine

import (
	"fmt"

	"github.com/JohnPitter/agenthub-sub003/internal/domain"
)

// ValidationResult — результат структурной валидации графа.
type ValidationResult struct {
	// Errors — человекочитаемые описания нарушений.
	// Пустой список означает валидный граф.
	Errors []string
}

// Valid возвращает true, если нарушений не найдено.
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) addf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Validate выполняет структурную валидацию графа.
//
// Проверки идут строго по порядку:
//  1. Непустое множество узлов.
//  2. Каждое ребро ссылается на существующие узлы — собираются
//     все нарушения сразу; при любом нарушении дальнейшие проверки
//     не выполняются (они предполагают целостные рёбра).
//  3. Существует хотя бы один входной узел (без входящих рёбер).
//     Отсутствие входных узлов диагностируется отдельно от
//     частичного цикла.
//  4. Ацикличность по алгоритму Кана: если упорядочить удалось не
//     все узлы, в графе цикл — сообщается число выпавших узлов.
//  5. Достижимость: BFS от всех входных узлов; недостижимые узлы
//     перечисляются по ID.
func Validate(g *Graph) *ValidationResult {
	result := &ValidationResult{}

	if g.Size() == 0 {
		result.addf("no nodes")
		return result
	}

	for _, edge := range g.Edges() {
		if g.Node(edge.Source) == nil {
			result.addf("edge %s: unknown source node %q", edge.ID, edge.Source)
		}
		if g.Node(edge.Target) == nil {
			result.addf("edge %s: unknown target node %q", edge.ID, edge.Target)
		}
	}
	if len(result.Errors) > 0 {
		return result
	}

	entries := g.EntryNodes()
	if len(entries) == 0 {
		result.addf("no entry nodes (every node has incoming edges, likely a cycle)")
		return result
	}

	if excluded := countCycleNodes(g); excluded > 0 {
		result.addf("cycle detected: %d node(s) cannot be topologically ordered", excluded)
	}

	for _, id := range unreachableNodes(g, entries) {
		result.addf("node %q is unreachable from entry nodes", id)
	}

	return result
}

// countCycleNodes возвращает число узлов, не попавших в топологический
// порядок Кана. Ноль означает ацикличный граф.
func countCycleNodes(g *Graph) int {
	indegree := make(map[string]int, g.Size())
	for i := range g.Nodes() {
		id := g.Nodes()[i].ID
		indegree[id] = len(g.Incoming(id))
	}

	queue := make([]string, 0)
	for i := range g.Nodes() {
		id := g.Nodes()[i].ID
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	processed := 0
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		processed++

		for _, edge := range g.Outgoing(id) {
			indegree[edge.Target]--
			if indegree[edge.Target] == 0 {
				queue = append(queue, edge.Target)
			}
		}
	}

	return g.Size() - processed
}

// unreachableNodes возвращает ID узлов, недостижимых обходом в ширину
// от входных узлов, в порядке объявления.
func unreachableNodes(g *Graph, entries []*domain.Node) []string {
	visited := make(map[string]bool, g.Size())

	queue := make([]string, 0, len(entries))
	for _, node := range entries {
		visited[node.ID] = true
		queue = append(queue, node.ID)
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		for _, edge := range g.Outgoing(id) {
			if !visited[edge.Target] {
				visited[edge.Target] = true
				queue = append(queue, edge.Target)
			}
		}
	}

	unreachable := make([]string, 0)
	for i := range g.Nodes() {
		id := g.Nodes()[i].ID
		if !visited[id] {
			unreachable = append(unreachable, id)
		}
	}
	return unreachable
}
