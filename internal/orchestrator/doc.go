// Package orchestrator управляет выполнением экземпляров workflow.
//
// Orchestrator отвечает за:
//   - Запуск экземпляра: загрузка графа, валидация, посев входных узлов
//   - Диспетчеризацию agent-узлов во внешнюю работу
//   - Мгновенное разрешение структурных (parallel/merge) и условных узлов
//   - Приём асинхронных сигналов о завершении работ (work.completed)
//   - Продвижение графа с корректными join'ами независимо от порядка прихода
//   - Финализацию: перевод задачи-владельца в следующую фазу
//
// Оркестратор событийный: внутри нет пула потоков, вся работа
// выполняется внешними агентами. Мутации одного экземпляра строго
// сериализованы его мьютексом; разные экземпляры независимы.
package orchestrator
