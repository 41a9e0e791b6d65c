// Command txmapd is a small CLI front end for the transactional map:
// "serve" exposes it over HTTP, "bench" drives a mixed read/write
// workload against it directly.
package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/jekaa/txmap/internal/api"
	"github.com/jekaa/txmap/internal/store"
	"github.com/jekaa/txmap/internal/threadlocal"
	"github.com/jekaa/txmap/mvcc"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "txmapd",
		Short: "Transactional snapshot-isolated map — HTTP service and benchmark driver",
	}

	root.AddCommand(newServeCmd(), newBenchCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var addr string
	var logLevel string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP key/value service",
		RunE: func(cmd *cobra.Command, args []string) error {
			level := slog.LevelInfo
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				return fmt.Errorf("invalid log level %q: %w", logLevel, err)
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			storage := store.NewMapStorage[string, []byte](nil)
			m := mvcc.UnsafeNew[string, []byte](threadlocal.New(), storage, mvcc.WithLogger(logger))
			srv := api.NewServer(m, storage)

			logger.Info("listening", "addr", addr)
			return http.ListenAndServe(addr, srv.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "minimum log level (debug, info, warn, error)")
	return cmd
}
