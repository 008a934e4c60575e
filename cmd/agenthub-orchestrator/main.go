// AgentHub Orchestrator — управляет выполнением экземпляров workflow.
//
// Orchestrator:
//   - Запускает экземпляры workflow для задач
//   - Диспетчеризует agent-узлы во внешнюю работу через RabbitMQ
//   - Получает сигналы work.completed и продвигает графы
//   - Финализирует экземпляры и переводит задачи по фазам
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JohnPitter/agenthub-sub003/internal/dispatch"
	"github.com/JohnPitter/agenthub-sub003/internal/mq"
	"github.com/JohnPitter/agenthub-sub003/internal/orchestrator"
	"github.com/JohnPitter/agenthub-sub003/internal/repo"
	"github.com/JohnPitter/agenthub-sub003/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting agenthub-orchestrator")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// Создаём репозитории
	workflowRepo := repo.NewWorkflowRepo(pool)
	taskRepo := repo.NewTaskRepo(pool)
	workItemRepo := repo.NewWorkItemRepo(pool)
	agentRepo := repo.NewAgentRepo(pool)

	// RabbitMQ
	var publisher *mq.Publisher
	var mqConn *mq.Connection
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err = mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, direct callbacks only", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		// Создаём топологию
		if err := mq.SetupTopology(mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	// Диспетчер внешних работ
	dispatcher := dispatch.New(dispatch.Config{
		Items:     workItemRepo,
		Agents:    agentRepo,
		Publisher: publisher,
		Logger:    logger,
	})

	// Создаём orchestrator
	orchCfg := orchestrator.Config{
		Graphs:       workflowRepo,
		Tasks:        taskRepo,
		Dispatcher:   dispatcher,
		Conn:         mqConn,
		FailureHalts: os.Getenv("FAILURE_HALTS") == "true",
		Logger:       logger,
	}
	// Typed nil в интерфейсе не равен nil — присваиваем только живой publisher
	if publisher != nil {
		orchCfg.Events = publisher
	}
	orch := orchestrator.New(orchCfg)

	// Запускаем orchestrator
	if err := orch.Start(ctx); err != nil {
		logger.Error("failed to start orchestrator", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8083"
	if v := os.Getenv("ORCH_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	// Останавливаем orchestrator
	orch.Stop()
	logger.Info("agenthub-orchestrator stopped")
}
