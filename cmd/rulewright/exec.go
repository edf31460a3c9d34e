package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/HendryAvila/rulewright/internal/apperr"
	"github.com/HendryAvila/rulewright/internal/executor"
	"github.com/HendryAvila/rulewright/internal/ops"
	"github.com/spf13/cobra"
)

var dryRun bool

var execCmd = &cobra.Command{
	Use:   "exec [file|-]",
	Short: "Apply an operation list to the repository",
	Long: `Read a JSON operation list (or an instruction object with an "operations"
field) from a file or stdin, apply it in order to --base, and print the
result map as JSON. The output is what process_instruction_results expects
as operation_results.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.ErrOrStderr(), false)
		if err != nil {
			return err
		}

		src := "-"
		if len(args) == 1 {
			src = args[0]
		}
		data, err := readInput(cmd.InOrStdin(), src)
		if err != nil {
			return err
		}
		list, err := decodeOperations(data)
		if err != nil {
			return err
		}

		ex, err := executor.New(cfg.BaseDir,
			executor.WithDryRun(dryRun),
			executor.WithProcessTimeout(cfg.Executor.ProcessTimeout),
		)
		if err != nil {
			return err
		}

		results := ex.Apply(cmd.Context(), list)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

func init() {
	execCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would happen without changing anything")
}

func readInput(stdin io.Reader, src string) ([]byte, error) {
	if src == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", src, err)
	}
	return data, nil
}

// decodeOperations accepts a bare list or an object carrying one under
// "operations", such as a whole instruction.
func decodeOperations(data []byte) (ops.List, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, apperr.New(apperr.ErrInvalidInput, "no operations given")
	}
	if data[0] == '{' {
		var wrapper struct {
			Operations json.RawMessage `json:"operations"`
		}
		if err := json.Unmarshal(data, &wrapper); err != nil {
			return nil, apperr.Wrap(err, apperr.ErrInvalidInput, "decoding instruction")
		}
		if len(wrapper.Operations) == 0 {
			return nil, apperr.New(apperr.ErrInvalidInput, `object has no "operations" field`)
		}
		data = wrapper.Operations
	}
	var list ops.List
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}
