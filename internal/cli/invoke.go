package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vietddude/orb/internal/core/config"
	"github.com/vietddude/orb/internal/core/domain"
	"github.com/vietddude/orb/internal/fault"
	"github.com/vietddude/orb/internal/infra/rpc"
	"github.com/vietddude/orb/internal/invoke"
)

var (
	invokeArgs []string
	invokeHint string
)

var invokeCmd = &cobra.Command{
	Use:   "invoke [name|orb://ref] [operation]",
	Short: "Call an operation on a remote object",
	Example: `  orb invoke Company hire --arg name=Ada --arg salary=4200
  orb invoke WeatherStation reading --hint "while fetching weather reading"
  orb invoke orb://localhost:7700/employees/1a2b3c4d-1 salary`,
	Args: cobra.ExactArgs(2),
	Run:  runInvoke,
}

func init() {
	invokeCmd.Flags().StringArrayVar(&invokeArgs, "arg", nil, "operation argument as key=value (repeatable)")
	invokeCmd.Flags().StringVar(&invokeHint, "hint", "", "context prefixed to fault messages")
	rootCmd.AddCommand(invokeCmd)
}

func runInvoke(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(cmd)
	ctx := context.Background()

	opArgs, err := parseArgs(invokeArgs)
	if err != nil {
		slog.Error("Invalid argument", "error", err)
		os.Exit(1)
	}

	ref, err := resolveTarget(ctx, cfg, args[0])
	if err != nil {
		slog.Error("Failed to resolve target", "target", args[0], "error", err)
		os.Exit(1)
	}

	client := rpc.NewClient()
	defer func() {
		_ = client.Close()
	}()

	inv := invoke.New(cfg.Invoker,
		invoke.WithHint(invokeHint),
		invoke.WithRetryCallback(func(op string, attempt int, rec *fault.Record) {
			slog.Warn("Retrying", "operation", op, "attempt", attempt, "fault", rec.Kind.String())
		}),
	)

	result, err := inv.Invoke(ctx, client.Operation(ref, args[1], opArgs))
	if err != nil {
		// Diagnostics sink: one standalone line per fault.
		fmt.Fprintln(os.Stderr, fault.Classify(err).Message())
		os.Exit(1)
	}

	out, err := formatResult(result)
	if err != nil {
		slog.Error("Failed to format result", "error", err)
		os.Exit(1)
	}
	fmt.Println(out)
}

func resolveTarget(ctx context.Context, cfg *config.AppConfig, target string) (domain.Ref, error) {
	if strings.HasPrefix(target, domain.RefScheme+"://") {
		return domain.ParseRef(target)
	}
	naming := openNaming(ctx, cfg)
	defer func() {
		_ = naming.Close()
	}()
	return naming.Resolve(ctx, target)
}

// parseArgs turns key=value pairs into operation arguments. Values that
// parse as numbers or booleans are sent typed; everything else is a string.
func parseArgs(pairs []string) (map[string]any, error) {
	args := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q is not key=value", pair)
		}
		if _, dup := args[key]; dup {
			return nil, fmt.Errorf("argument %q given twice", key)
		}
		args[key] = parseValue(raw)
	}
	return args, nil
}

func parseValue(raw string) any {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	return raw
}

func formatResult(result any) (string, error) {
	switch v := result.(type) {
	case nil:
		return "null", nil
	case domain.Ref:
		return v.String(), nil
	case string:
		return v, nil
	default:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
}
