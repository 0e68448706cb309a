package main

import (
	"fmt"
	"net/http"

	"github.com/milestonehq/milestone/internal/api"
	"github.com/milestonehq/milestone/internal/scanner"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		addr         string
		watch        bool
		debounceSecs int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the operations queue, and (optionally) a live filesystem watch in one long-lived process",
		Long: `Run the HTTP API, the operations queue, and (optionally) a live
filesystem watch in one long-lived process.

This is the one place scan/hash/queue workers can run indefinitely:
every other CLI invocation opens its own catalog handle and exits, which
would otherwise silently kill any in-progress background work.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.Ops.Start() {
				return fmt.Errorf("failed to start operations queue")
			}

			if watch {
				trigger := func(driveID int64) bool {
					return a.Scanner.Start(&driveID, scanner.ThrottleFast)
				}
				if err := a.EnableWatch(trigger, debounceSecs); err != nil {
					return fmt.Errorf("enable filesystem watch: %w", err)
				}
			}

			listenAddr := addr
			if listenAddr == "" {
				listenAddr = a.Config.Addr()
			}

			server := api.NewServer(a)

			fmt.Printf("milestone serve listening on %s (write_mode=%v, watch=%v)\n", listenAddr, a.Config.WriteMode, watch)
			fmt.Println("Endpoints:")
			fmt.Println("  GET    /health                        - health check")
			fmt.Println("  GET    /mode                          - current write_mode")
			fmt.Println("  GET    /api/v1/drives                 - list registered drives")
			fmt.Println("  GET    /api/v1/roots                  - list registered roots")
			fmt.Println("  GET    /api/v1/files                  - list catalogued files")
			fmt.Println("  GET    /api/v1/items                  - list media items")
			fmt.Println("  GET    /api/v1/scan/status            - scan status")
			fmt.Println("  POST   /api/v1/scan/start              - start a scan")
			fmt.Println("  GET    /api/v1/hash/status             - hash queue status")
			fmt.Println("  GET    /api/v1/cleanup/recommendations - redundant-copy recommendations")
			fmt.Println("  POST   /api/v1/ops/copy                - enqueue a copy")
			fmt.Println("  GET    /api/v1/ops/queue/status        - operations queue status")
			fmt.Println("  GET    /api/v1/exports/duplicates      - CSV export of duplicates")

			return http.ListenAndServe(listenAddr, server.Handler())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "address to listen on (default: api.host:api.port from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "enable live filesystem watch, triggering fast rescans on activity")
	cmd.Flags().IntVar(&debounceSecs, "debounce", 10, "seconds of quiet before a watch-triggered rescan fires")

	return cmd
}
