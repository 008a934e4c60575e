package dispatch

import "errors"

// Ошибки диспетчера.
var (
	// ErrAgentNotEligible — агент не существует или неактивен.
	ErrAgentNotEligible = errors.New("agent not eligible")

	// ErrNoAgentsAvailable — в реестре нет ни одного активного агента.
	ErrNoAgentsAvailable = errors.New("no agents available")
)
