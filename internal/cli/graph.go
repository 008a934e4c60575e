package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JohnPitter/agenthub-sub003/internal/domain"
	"github.com/JohnPitter/agenthub-sub003/internal/engine"
)

// NewGraphCmd создаёт группу команд инспекции графов workflow.
func NewGraphCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Inspect workflow graphs",
	}

	cmd.AddCommand(
		newGraphValidateCmd(outputFn),
		newGraphOrderCmd(outputFn),
		newGraphEntriesCmd(outputFn),
		newGraphNextCmd(outputFn),
	)

	return cmd
}

// loadGraph читает и индексирует граф из JSON-файла.
func loadGraph(path string) (*engine.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}

	var spec domain.WorkflowGraph
	if err := json.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse graph file: %w", err)
	}

	return engine.NewGraph(&spec), nil
}

func newGraphValidateCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a workflow graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			graph, err := loadGraph(args[0])
			if err != nil {
				return err
			}

			result := engine.Validate(graph)
			if result.Valid() {
				out.Success(fmt.Sprintf("Graph is valid: %d node(s), %d edge(s)",
					len(graph.Nodes()), len(graph.Edges())))
				out.Print(
					[]string{"NODES", "EDGES", "VALID"},
					[][]string{{
						strconv.Itoa(len(graph.Nodes())),
						strconv.Itoa(len(graph.Edges())),
						"true",
					}},
					result,
				)
				return nil
			}

			rows := make([][]string, len(result.Errors))
			for i, msg := range result.Errors {
				rows[i] = []string{strconv.Itoa(i + 1), msg}
			}
			out.Print([]string{"#", "ERROR"}, rows, result)

			return fmt.Errorf("graph is invalid: %d error(s)", len(result.Errors))
		},
	}
}

func newGraphOrderCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "order FILE",
		Short: "Show layered execution order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			graph, err := loadGraph(args[0])
			if err != nil {
				return err
			}

			if result := engine.Validate(graph); !result.Valid() {
				return fmt.Errorf("graph is invalid: %s", result.Errors[0])
			}

			layers := engine.ExecutionOrder(graph)
			rows := make([][]string, len(layers))
			for i, layer := range layers {
				rows[i] = []string{strconv.Itoa(i), strings.Join(layer, ", ")}
			}

			out.Print([]string{"LAYER", "NODES"}, rows, layers)
			return nil
		},
	}
}

func newGraphEntriesCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "entries FILE",
		Short: "List entry nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			graph, err := loadGraph(args[0])
			if err != nil {
				return err
			}

			entries := graph.EntryNodes()
			rows := make([][]string, len(entries))
			for i, node := range entries {
				rows[i] = []string{node.ID, string(node.Kind), node.Label}
			}

			out.Print([]string{"ID", "TYPE", "LABEL"}, rows, entries)
			return nil
		},
	}
}

func newGraphNextCmd(outputFn func() *Output) *cobra.Command {
	var completedList []string
	var ctxPairs []string

	cmd := &cobra.Command{
		Use:   "next FILE NODE",
		Short: "Show nodes that become ready after NODE completes",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			graph, err := loadGraph(args[0])
			if err != nil {
				return err
			}

			nodeID := args[1]
			if graph.Node(nodeID) == nil {
				return fmt.Errorf("unknown node: %s", nodeID)
			}

			// Завершённый набор: переданные --completed плюс сам узел
			completed := map[string]bool{nodeID: true}
			for _, id := range completedList {
				completed[id] = true
			}

			decision := make(map[string]string, len(ctxPairs))
			for _, pair := range ctxPairs {
				key, value, ok := strings.Cut(pair, "=")
				if !ok {
					return fmt.Errorf("invalid --ctx value %q, expected key=value", pair)
				}
				decision[key] = value
			}

			next := engine.NextNodes(graph, completed, nodeID, decision)

			rows := make([][]string, len(next))
			for i, id := range next {
				node := graph.Node(id)
				rows[i] = []string{node.ID, string(node.Kind), node.Label}
			}

			out.Print([]string{"ID", "TYPE", "LABEL"}, rows, next)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&completedList, "completed", nil, "IDs of already completed nodes")
	cmd.Flags().StringSliceVar(&ctxPairs, "ctx", nil, "Decision context entries (key=value)")

	return cmd
}
