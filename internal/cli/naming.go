package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/orb/internal/control"
	"github.com/vietddude/orb/internal/core/config"
	"github.com/vietddude/orb/internal/infra/storage"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [name]",
	Short: "Print the object reference bound to a name",
	Args:  cobra.ExactArgs(1),
	Run:   runResolve,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every name in the naming service",
	Run:   runList,
}

var unbindCmd = &cobra.Command{
	Use:   "unbind [name]",
	Short: "Remove a name from the naming service",
	Args:  cobra.ExactArgs(1),
	Run:   runUnbind,
}

func init() {
	rootCmd.AddCommand(resolveCmd, listCmd, unbindCmd)
}

func openNaming(ctx context.Context, cfg *config.AppConfig) storage.NamingRepository {
	if cfg.Naming.Backend == config.NamingMemory {
		slog.Warn("Memory naming service is process-local; configure redis or postgres to share names")
	}
	naming, _, err := control.OpenNaming(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open naming service", "error", err)
		os.Exit(1)
	}
	return naming
}

func runResolve(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(cmd)
	ctx := context.Background()
	naming := openNaming(ctx, cfg)
	defer func() {
		_ = naming.Close()
	}()

	ref, err := naming.Resolve(ctx, args[0])
	if err != nil {
		slog.Error("Failed to resolve name", "name", args[0], "error", err)
		os.Exit(1)
	}
	fmt.Println(ref.String())
}

func runList(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(cmd)
	ctx := context.Background()
	naming := openNaming(ctx, cfg)
	defer func() {
		_ = naming.Close()
	}()

	bindings, err := naming.List(ctx)
	if err != nil {
		slog.Error("Failed to list names", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "NAME\tREFERENCE\tUPDATED")
	for _, b := range bindings {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", b.Name, b.Ref.String(), b.UpdatedAt.Format(time.RFC3339))
	}
	_ = w.Flush()
}

func runUnbind(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig(cmd)
	ctx := context.Background()
	naming := openNaming(ctx, cfg)
	defer func() {
		_ = naming.Close()
	}()

	if err := naming.Unbind(ctx, args[0]); err != nil {
		slog.Error("Failed to unbind name", "name", args[0], "error", err)
		os.Exit(1)
	}
	fmt.Printf("Unbound %s\n", args[0])
}
