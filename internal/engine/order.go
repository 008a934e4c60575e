package engine

// ExecutionOrder строит послойное параллельно-безопасное расписание
// по алгоритму Кана.
//
// Вместо линейного порядка узлы группируются: каждый слой — это
// текущий фронт узлов с нулевой входящей степенью. Все зависимости
// узла слоя k лежат в слоях 0..k-1, поэтому узлы одного слоя можно
// выполнять параллельно. Порядок узлов внутри слоя не специфицирован,
// полагаться на него нельзя.
//
// Для графа с циклом узлы цикла не попадают ни в один слой —
// Validate должен быть вызван до использования расписания.
func ExecutionOrder(g *Graph) [][]string {
	indegree := make(map[string]int, g.Size())
	for i := range g.Nodes() {
		id := g.Nodes()[i].ID
		indegree[id] = len(g.Incoming(id))
	}

	frontier := make([]string, 0)
	for i := range g.Nodes() {
		id := g.Nodes()[i].ID
		if indegree[id] == 0 {
			frontier = append(frontier, id)
		}
	}

	layers := make([][]string, 0)
	for len(frontier) > 0 {
		layers = append(layers, frontier)

		next := make([]string, 0)
		for _, id := range frontier {
			for _, edge := range g.Outgoing(id) {
				indegree[edge.Target]--
				if indegree[edge.Target] == 0 {
					next = append(next, edge.Target)
				}
			}
		}
		frontier = next
	}

	return layers
}
