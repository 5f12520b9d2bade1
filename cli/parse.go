package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ashneo76/ansible/engine/module"
	"github.com/ashneo76/ansible/engine/task"
	"github.com/ashneo76/ansible/pkg/loader"
	"github.com/ashneo76/ansible/pkg/logger"
)

// ParseCmd returns the parse command
func ParseCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Normalize every task declaration in a YAML file",
		Long: `Load a YAML file holding a sequence of task declarations, normalize each
one against the builtin module registry and print the canonical
(module, args, delegate_to) triples.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runParse(args[0], format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format (yaml or json)")
	return cmd
}

func runParse(path, format string) error {
	records, err := loader.LoadTasks(path)
	if err != nil {
		return err
	}
	registry := module.Builtin()
	normalized := make([]map[string]any, 0, len(records))
	for i, record := range records {
		result, err := task.NewModuleArgsParser(record, registry).Parse()
		if err != nil {
			return fmt.Errorf("task %d: %w", i+1, err)
		}
		entry := map[string]any{
			"module": result.Operation,
			"args":   map[string]any(result.Params),
		}
		if result.DelegateTo != "" {
			entry["delegate_to"] = result.DelegateTo
		}
		normalized = append(normalized, entry)
	}
	logger.Info("normalized task declarations", "path", path, "count", len(normalized))
	return writeOutput(os.Stdout, normalized, format)
}

func writeOutput(w io.Writer, normalized []map[string]any, format string) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(normalized)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		defer encoder.Close()
		return encoder.Encode(normalized)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}
