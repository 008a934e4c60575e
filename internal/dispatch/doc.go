// Package dispatch содержит эталонную реализацию диспетчера работ.
//
// Dispatcher создаёт единицы работы в Postgres, публикует событие
// work.ready в RabbitMQ для внешней среды выполнения агентов и
// предоставляет примитивы назначения исполнителя (явное назначение,
// подбор по роли, авто-назначение).
//
// Сама работа выполняется внешним агентом: диспетчер только
// регистрирует её и сообщает о ней. Завершение приходит обратно
// оркестратору сообщением work.completed.
package dispatch
