// Package cli реализует команды инструмента agenthub: инспекция
// графов workflow (валидация, порядок выполнения, маршрутизация)
// без подключения к базе — граф читается из JSON-файла.
package cli
