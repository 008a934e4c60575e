package repo

import "errors"

// Ошибки слоя хранения.
var (
	// ErrNotFound — запись не найдена.
	ErrNotFound = errors.New("not found")

	// ErrMalformedGraph — JSONB документ графа не соответствует схеме.
	ErrMalformedGraph = errors.New("malformed workflow graph")
)
