package domain

import "time"

// Agent — запись в реестре исполнителей.
//
// Реестр внешний по отношению к оркестратору: оркестратор лишь
// подбирает исполнителя для agent-узла (явный ID → роль → авто).
type Agent struct {
	// ID — идентификатор агента (как он указывается в AgentID узла).
	ID string `json:"id"`

	// Name — отображаемое имя.
	Name string `json:"name"`

	// Role — роль агента ("reviewer", "builder" и т.п.).
	Role string `json:"role"`

	// IsActive — неактивные агенты не получают назначений.
	IsActive bool `json:"is_active"`

	// Busy — агент занят другой работой. Занятые агенты допустимы
	// как исполнители, но при подборе по роли предпочтение
	// отдаётся свободным.
	Busy bool `json:"busy"`

	// CreatedAt — время регистрации.
	CreatedAt time.Time `json:"created_at"`
}
