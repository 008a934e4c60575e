// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — соединение с брокером (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений
//   - consumer.go   — потребление сообщений
//
// Типы сообщений:
//   - work.ready      — единица работы готова, её должен забрать агент
//   - work.completed  — агент завершил работу (callback оркестратору)
//   - workflow.event  — наблюдательные события фаз workflow
//
// Exchanges:
//   - agenthub.work    — диспетчеризация и завершение работ
//   - agenthub.events  — наблюдательные события (fire-and-forget)
//   - agenthub.dlq     — dead letter queue
package mq
