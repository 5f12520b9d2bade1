// Package loader reads raw task records from playbook-style YAML files.
package loader

import (
	"errors"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ashneo76/ansible/engine/task"
	"github.com/ashneo76/ansible/pkg/logger"
)

// Error codes
const (
	ErrCodeFileOpen = "FILE_OPEN_ERROR"
	ErrCodeDecode   = "DECODE_ERROR"
)

// LoadError represents errors that can occur while loading a task file
type LoadError struct {
	Message string
	Code    string
}

func (e *LoadError) Error() string {
	return e.Message
}

// LoadTasks reads a YAML file holding a sequence of task records and returns
// them raw, without any normalization.
func LoadTasks(path string) ([]task.Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{
			Message: "Failed to open task file: " + err.Error(),
			Code:    ErrCodeFileOpen,
		}
	}
	defer file.Close()
	return decodeTasks(file, path)
}

func decodeTasks(r io.Reader, path string) ([]task.Record, error) {
	var raw []map[string]any
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			logger.Debug("task file is empty", "path", path)
			return nil, nil
		}
		return nil, &LoadError{
			Message: "Failed to decode task file: " + err.Error(),
			Code:    ErrCodeDecode,
		}
	}
	records := make([]task.Record, 0, len(raw))
	for _, entry := range raw {
		records = append(records, task.Record(entry))
	}
	logger.Debug("loaded task records", "path", path, "count", len(records))
	return records, nil
}
