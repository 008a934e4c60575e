// Package engine содержит чистый движок графа workflow.
//
// Включает:
//   - graph.go    — индексированное представление графа (узлы, рёбра, индексы)
//   - validate.go — структурная валидация (целостность рёбер, циклы, достижимость)
//   - order.go    — послойный топологический порядок (алгоритм Кана)
//   - routing.go  — вычисление следующих узлов: ветвление условий и join-фильтр
//
// Все функции пакета чистые: результат зависит только от явных
// аргументов, скрытого состояния нет. Мутабельное состояние выполнения
// живёт в пакете orchestrator.
package engine
