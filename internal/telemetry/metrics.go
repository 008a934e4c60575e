package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики оркестратора. Экспортируются через promhttp в main.
var (
	// InstancesStarted — количество запущенных экземпляров workflow.
	InstancesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agenthub_instances_started_total",
		Help: "Number of workflow instances started.",
	})

	// InstancesFinished — завершённые экземпляры по итоговому статусу.
	InstancesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "agenthub_instances_finished_total",
		Help: "Number of workflow instances finished, by terminal status.",
	}, []string{"status"})

	// ActiveInstances — текущее число экземпляров в реестре.
	ActiveInstances = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "agenthub_active_instances",
		Help: "Number of workflow instances currently running.",
	})

	// NodesDispatched — количество узлов, отправленных во внешнюю работу.
	NodesDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agenthub_nodes_dispatched_total",
		Help: "Number of agent nodes dispatched as external work items.",
	})

	// DroppedCompletions — сигналы завершения без известной корреляции
	// (поздние или повторные callbacks).
	DroppedCompletions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "agenthub_dropped_completions_total",
		Help: "Number of completion signals ignored due to unknown correlation.",
	})
)
