// AgentHub CLI — инструмент командной строки для инспекции
// графов workflow.
//
// Использование:
//
//	agenthub [--json] graph <subcommand> [flags]
//
// Команды:
//
//	graph validate FILE   Структурная валидация графа
//	graph order FILE      Послойный порядок выполнения
//	graph entries FILE    Входные узлы
//	graph next FILE NODE  Узлы, готовые после завершения NODE
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/JohnPitter/agenthub-sub003/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "agenthub",
		Short:         "AgentHub CLI — workflow graph tooling",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewGraphCmd(outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
