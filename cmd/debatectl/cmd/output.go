package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/xiaot623/gogo/debatebridge/internal/tools"
)

// errToolFailed marks a result with ok=false. The result has already been
// printed, so main only reports a short reason.
var errToolFailed = errors.New("tool call failed")

func printResult(w io.Writer, res *tools.Result) error {
	switch outputFormat {
	case "json":
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		if err := writeYAML(w, res); err != nil {
			return err
		}
	default:
		if res.OK {
			fmt.Fprintln(w, res.Text)
		}
	}

	if !res.OK {
		if res.Error != nil {
			return fmt.Errorf("%w: [%s] %s", errToolFailed, res.Error.Code, res.Error.Message)
		}
		return errToolFailed
	}
	return nil
}

func printTools(w io.Writer, list []tools.Tool) error {
	switch outputFormat {
	case "json":
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode tools: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	case "yaml":
		return writeYAML(w, list)
	}
	for _, tool := range list {
		fmt.Fprintf(w, "%-20s %s\n", tool.Name, tool.Description)
	}
	return nil
}

// writeYAML renders v through its JSON form so the keys match the wire names.
func writeYAML(w io.Writer, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}
