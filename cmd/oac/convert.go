package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aymanbagabas/go-udiff"
	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"
	"github.com/spf13/cobra"

	"github.com/openagents-control/oac/pkg/adapters"
	"github.com/openagents-control/oac/pkg/presenter"
)

// ConvertConfig holds configuration for the convert command
type ConvertConfig struct {
	From   string
	To     string
	Output string
	Diff   bool
}

// NewConvertConfig creates a new ConvertConfig with default values
func NewConvertConfig() *ConvertConfig {
	return &ConvertConfig{
		From: "openagents",
		To:   "claude",
	}
}

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert one agent file between tool formats",
	Long: `Convert an agent file from one tool format to another by way of the
canonical OpenAgents Control schema. Everything the target format cannot
express is reported as a warning.

Without --output the converted document is printed to stdout. With --diff
nothing is written; the change against the output file (or, without
--output, the target's conventional path) is shown instead.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := getConvertConfigFromFlags(cmd)
		if err := runConvert(cmd.Context(), newRegistry(), config, args[0], os.Stdout); err != nil {
			presenter.Error(err, "Conversion failed")
			exitCode = 1
		}
	},
}

func init() {
	defaults := NewConvertConfig()
	convertCmd.Flags().String("from", defaults.From, "Format of the input file")
	convertCmd.Flags().String("to", defaults.To, "Format to convert to")
	convertCmd.Flags().StringP("output", "o", defaults.Output, "Write the result to this file")
	convertCmd.Flags().Bool("diff", defaults.Diff, "Show a unified diff instead of writing")
}

// getConvertConfigFromFlags extracts convert configuration from command flags
func getConvertConfigFromFlags(cmd *cobra.Command) *ConvertConfig {
	config := NewConvertConfig()

	if from, err := cmd.Flags().GetString("from"); err == nil {
		config.From = from
	}
	if to, err := cmd.Flags().GetString("to"); err == nil {
		config.To = to
	}
	if output, err := cmd.Flags().GetString("output"); err == nil {
		config.Output = output
	}
	if diff, err := cmd.Flags().GetBool("diff"); err == nil {
		config.Diff = diff
	}

	return config
}

func runConvert(ctx context.Context, registry *adapters.Registry, config *ConvertConfig, path string, out io.Writer) error {
	from, ok := registry.Get(config.From)
	if !ok {
		return errors.Errorf("unknown source format %q (available: %v)", config.From, registry.List())
	}
	to, ok := registry.Get(config.To)
	if !ok {
		return errors.Errorf("unknown target format %q (available: %v)", config.To, registry.List())
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", path)
	}

	res := adapters.Translate(ctx, from, to, string(source))
	presenter.ConversionReport(filepath.Base(path), res.Warnings, res.Errors)
	if !res.Success {
		return errors.Errorf("cannot convert %s from %s to %s", path, from.DisplayName(), to.DisplayName())
	}

	target := config.Output
	if config.Diff {
		if target == "" {
			target = filepath.FromSlash(res.Data.Path)
		}
		current, err := os.ReadFile(target)
		if err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to read %s", target)
		}
		fmt.Fprint(out, udiff.Unified(target, target, string(current), res.Data.Content))
		return nil
	}

	if target == "" {
		_, err := io.WriteString(out, res.Data.Content)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", target)
	}
	if err := lockedfile.Write(target, bytes.NewReader([]byte(res.Data.Content)), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", target)
	}
	presenter.Success(fmt.Sprintf("Wrote %s", target))
	return nil
}
