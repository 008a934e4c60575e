package engine

import (
	"strconv"
	"strings"

	"github.com/JohnPitter/agenthub-sub003/internal/domain"
)

// NextNodes вычисляет узлы, ставшие готовыми после завершения lastCompleted.
//
// Алгоритм:
//  1. Неизвестный узел → пустой результат.
//  2. Для condition-узла кандидаты — цели рёбер, чья метка ветки
//     совпала с результатом CheckCondition. Если ни одно ребро не
//     совпало (например, автор развёл только ветку "true", а условие
//     дало "false"), берётся первое исходящее ребро в порядке
//     объявления — политика "никогда не заходить в тупик".
//  3. Для остальных узлов кандидаты — цели всех исходящих рёбер.
//     Так работают и fan-out через parallel, и обычная цепочка.
//  4. Join-фильтр: кандидат готов, только если источники всех его
//     входящих рёбер уже в completed. Фильтр применяется единообразно
//     ко всем узлам — merge ничем структурно не выделен, ожидание
//     всех предшественников следует из общего правила.
//
// Функция чистая: повторный вызов с теми же аргументами даёт тот же
// результат. completed должен уже содержать lastCompleted.
func NextNodes(g *Graph, completed map[string]bool, lastCompleted string, decision map[string]string) []string {
	node := g.Node(lastCompleted)
	if node == nil {
		return nil
	}

	edges := g.Outgoing(lastCompleted)

	var candidates []string
	if node.Kind == domain.NodeKindCondition {
		branch := CheckCondition(node, decision)
		for _, edge := range edges {
			if edge.Branch == branch {
				candidates = append(candidates, edge.Target)
			}
		}
		if len(candidates) == 0 && len(edges) > 0 {
			candidates = []string{edges[0].Target}
		}
	} else {
		for _, edge := range edges {
			candidates = append(candidates, edge.Target)
		}
	}

	ready := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, id := range candidates {
		if seen[id] {
			continue
		}
		seen[id] = true

		satisfied := true
		for _, in := range g.Incoming(id) {
			if !completed[in.Source] {
				satisfied = false
				break
			}
		}
		if satisfied {
			ready = append(ready, id)
		}
	}

	return ready
}

// CheckCondition вычисляет условный узел против контекста решения.
//
// Всегда возвращает ровно один из литералов "true"/"false" и никогда
// не паникует:
//   - отсутствующий контекст или незаполненное поле условия → "false";
//   - отсутствующее в контексте значение сравнивается как пустая строка;
//   - eq/neq — строковое равенство, contains/not_contains — подстрока;
//   - gt/lt — обе стороны парсятся как десятичные числа; любой сбой
//     парсинга даёт "false" (а не NaN-семантику плавающей точки);
//   - нераспознанный оператор → "false".
func CheckCondition(node *domain.Node, decision map[string]string) string {
	if decision == nil || node.ConditionField == "" {
		return domain.BranchFalse
	}

	value := decision[node.ConditionField]
	want := node.ConditionValue

	result := false
	switch node.ConditionOperator {
	case domain.OperatorEq:
		result = value == want
	case domain.OperatorNeq:
		result = value != want
	case domain.OperatorContains:
		result = strings.Contains(value, want)
	case domain.OperatorNotContains:
		result = !strings.Contains(value, want)
	case domain.OperatorGt:
		left, right, ok := parseNumbers(value, want)
		result = ok && left > right
	case domain.OperatorLt:
		left, right, ok := parseNumbers(value, want)
		result = ok && left < right
	}

	if result {
		return domain.BranchTrue
	}
	return domain.BranchFalse
}

// parseNumbers парсит обе стороны числового сравнения.
func parseNumbers(a, b string) (float64, float64, bool) {
	left, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return 0, 0, false
	}
	right, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return 0, 0, false
	}
	return left, right, true
}
