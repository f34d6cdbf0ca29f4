package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/flow-lang/flow/internal/flow/ast"
	"github.com/flow-lang/flow/internal/flow/connectors"
	"github.com/flow-lang/flow/internal/flow/connectors/mock"
	"github.com/flow-lang/flow/internal/flow/diagnostics"
	"github.com/flow-lang/flow/internal/flow/lexer"
	"github.com/flow-lang/flow/internal/flow/parser"
	"github.com/flow-lang/flow/internal/flow/runtime"
)

var (
	runTriggerFile string
	runMock        bool
	runTimeout     time.Duration
	runJSONLogs    bool
)

func init() {
	runCmd.Flags().StringVar(&runTriggerFile, "trigger", "", "path to a JSON file with the trigger payload (defaults to stdin if present, else empty)")
	runCmd.Flags().BoolVar(&runMock, "mock", false, "run against mock connectors instead of live services")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 30*time.Second, "execution timeout if the workflow's own config doesn't set one")
	runCmd.Flags().BoolVar(&runJSONLogs, "json-logs", false, "emit production JSON logs instead of the human-readable development format")
}

var runCmd = &cobra.Command{
	Use:   "run <file.flow>",
	Short: "Run a workflow to completion against live or mock connectors",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		source, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		diags, err := checkSource(path, string(source))
		if err != nil {
			return err
		}
		if diags.HasErrors() {
			fmt.Print(diagnostics.FormatList(diags, string(source)))
			return fmt.Errorf("%s has %d error(s); not running", path, diags.ErrorCount())
		}

		prog, err := parseOnly(path, string(source))
		if err != nil {
			return err
		}

		var registry runtime.Registry
		if runMock {
			registry = connectors.BuildMock(prog.Services, mockSuccess())
		} else {
			registry, err = connectors.BuildLive(prog.Services, os.Getenv)
			if err != nil {
				return err
			}
		}

		trigger, err := loadTrigger()
		if err != nil {
			return err
		}

		var logger *zap.Logger
		if runJSONLogs {
			logger, err = zap.NewProduction()
		} else {
			logger, err = zap.NewDevelopment()
		}
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		defer logger.Sync()

		sink := runtime.LogSinkFunc(func(runID, step, message string) {
			if step != "" {
				logger.Info(message, zap.String("step", step), zap.String("runId", runID))
			} else {
				logger.Info(message, zap.String("runId", runID))
			}
		})

		timeout := runTimeout
		if prog.Config != nil {
			for _, e := range prog.Config.Entries {
				if e.Key == "timeout" {
					if d, err := parseTimeoutValue(e.Value); err == nil {
						timeout = d
					}
				}
			}
		}

		interp := runtime.New(path, registry, runtime.WithLogSink(sink), runtime.WithTimeout(timeout))
		runID := runtime.NewRunID()
		ctx := runtime.WithRunID(context.Background(), runID)

		outcome := interp.Run(ctx, prog, runtime.FromGo(trigger), hostEnvValue())

		printOutcome(outcome)
		if outcome.Status == runtime.StatusError {
			return fmt.Errorf("workflow errored: %s", outcome.Message)
		}
		return nil
	},
}

func parseOnly(path, source string) (*ast.Program, error) {
	toks, err := lexer.New(path, source).Scan()
	if err != nil {
		return nil, err
	}
	prog, _ := parser.New(path, toks).Parse()
	return prog, nil
}

func loadTrigger() (interface{}, error) {
	var raw []byte
	var err error

	switch runTriggerFile {
	case "":
		stat, statErr := os.Stdin.Stat()
		if statErr == nil && (stat.Mode()&os.ModeCharDevice) == 0 {
			raw, err = io.ReadAll(os.Stdin)
		}
	default:
		raw, err = os.ReadFile(runTriggerFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading trigger payload: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var payload interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("parsing trigger payload as JSON: %w", err)
	}
	return payload, nil
}

func hostEnvValue() runtime.Value {
	rec := runtime.Record{}
	for _, kv := range os.Environ() {
		if parts := strings.SplitN(kv, "=", 2); len(parts) == 2 {
			rec[parts[0]] = runtime.Text(parts[1])
		}
	}
	return rec
}

func mockSuccess() mock.Response {
	return mock.Response{Result: runtime.Text("ok"), Status: runtime.Number(200)}
}

func printOutcome(outcome runtime.Outcome) {
	switch outcome.Status {
	case runtime.StatusCompleted:
		color.New(color.FgGreen, color.Bold).Println("✓ completed")
	case runtime.StatusRejected:
		color.New(color.FgYellow, color.Bold).Println("✗ rejected")
	case runtime.StatusError:
		color.New(color.FgRed, color.Bold).Println("✗ error")
	}
	if outcome.Message != "" {
		fmt.Println("  " + outcome.Message)
	}
	for _, o := range outcome.Outputs {
		fmt.Printf("  %s: %s\n", o.Name, o.Value.String())
	}
}

func parseTimeoutValue(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	if fields := strings.Fields(v); len(fields) == 2 {
		if n, err := strconv.Atoi(fields[0]); err == nil {
			switch strings.TrimSuffix(fields[1], "s") {
			case "second":
				return time.Duration(n) * time.Second, nil
			case "minute":
				return time.Duration(n) * time.Minute, nil
			case "hour":
				return time.Duration(n) * time.Hour, nil
			}
		}
	}
	return 0, fmt.Errorf("unrecognized timeout value %q", v)
}
