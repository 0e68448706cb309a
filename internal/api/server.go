// Package api is the HTTP surface over the catalog and its workers: a
// hand-written chi router (no generated bindings — the retrieved pack
// carries no oapi-codegen output to regenerate from) exposing drives,
// roots, files, scan, hash, items, operations, cleanup, and CSV export
// endpoints as JSON in/out.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/milestonehq/milestone/internal/app"
)

// Server implements the HTTP API around a constructed App.
type Server struct {
	app *app.App
}

// NewServer builds a Server over an already-wired App.
func NewServer(a *app.App) *Server {
	return &Server{app: a}
}

// Handler returns the root HTTP handler: global middleware, CORS, and
// every resource group mounted under /api/v1.
func (s *Server) Handler() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/mode", s.handleMode)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		r.Route("/drives", func(r chi.Router) {
			r.Post("/register", s.handleRegisterDrive)
			r.Get("/", s.handleListDrives)
			r.Delete("/{id}", s.handleDeleteDrive)
		})

		r.Route("/roots", func(r chi.Router) {
			r.Post("/", s.handleAddRoot)
			r.Get("/", s.handleListRoots)
			r.Patch("/{id}", s.handleSetRootExcluded)
			r.Delete("/{id}", s.handleDeleteRoot)
		})

		r.Route("/files", func(r chi.Router) {
			r.Get("/", s.handleListFiles)
			r.Get("/stats", s.handleFileStats)
			r.Get("/{id}/log", s.handleFileLog)
			r.Post("/{id}/open-explorer", s.handleOpenExplorer)
			r.Post("/{id}/open-folder", s.handleOpenFolder)
		})

		r.Route("/scan", func(r chi.Router) {
			r.Post("/start", s.handleScanStart)
			r.Get("/status", s.handleScanStatus)
			r.Post("/control", s.handleScanControl)
		})

		r.Route("/hash", func(r chi.Router) {
			r.Post("/compute", s.handleHashCompute)
			r.Get("/status", s.handleHashStatus)
			r.Post("/stop", s.handleHashStop)
			r.Post("/file/{id}", s.handleHashFile)
		})

		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.handleListItems)
			r.Get("/stats", s.handleItemStats)
			r.Get("/{id}", s.handleGetItem)
			r.Post("/merge", s.handleMergeItems)
			r.Post("/split", s.handleSplitItem)
			r.Post("/process", s.handleProcessUnlinked)
			r.Patch("/{id}", s.handlePatchItem)
		})

		r.Route("/ops", func(r chi.Router) {
			r.Get("/", s.handleListOps)
			r.Get("/{id}", s.handleGetOp)
			r.Post("/copy", s.handleEnqueueCopy)
			r.Post("/copy/batch", s.handleEnqueueCopyBatch)
			r.Get("/destinations/{file_id}", s.handlePickDestinations)
			r.Post("/{id}/pause", s.handleOpPause)
			r.Post("/{id}/resume", s.handleOpResume)
			r.Post("/{id}/cancel", s.handleOpCancel)

			r.Route("/queue", func(r chi.Router) {
				r.Get("/status", s.handleQueueStatus)
				r.Post("/start", s.handleQueueStart)
				r.Post("/stop", s.handleQueueStop)
				r.Post("/pause", s.handleQueuePause)
				r.Post("/resume", s.handleQueueResume)
				r.Post("/concurrency", s.handleQueueConcurrency)
			})

			r.Route("/rules", func(r chi.Router) {
				r.Get("/", s.handleListRules)
				r.Post("/", s.handleAddRule)
				r.Delete("/{id}", s.handleDeleteRule)
			})
		})

		r.Route("/cleanup", func(r chi.Router) {
			r.Get("/recommendations", s.handleCleanupRecommendations)
			r.Post("/quarantine", s.handleQuarantine)
			r.Post("/restore", s.handleRestore)
		})

		r.Route("/log", func(r chi.Router) {
			r.Get("/recent", s.handleRecentLog)
		})

		r.Route("/exports", func(r chi.Router) {
			r.Get("/at-risk", s.handleExportAtRisk)
			r.Get("/inventory", s.handleExportInventory)
			r.Get("/duplicates", s.handleExportDuplicates)
		})
	})

	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"service": "milestone"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMode(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"write_mode": s.app.Config.WriteMode})
}
