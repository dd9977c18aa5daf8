package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/campuscode/leetboard/internal/export"
	"github.com/campuscode/leetboard/internal/model"
	"github.com/campuscode/leetboard/internal/report"
	"github.com/campuscode/leetboard/internal/resilience"
)

var servePort int

// statsProvider is the slice of the refresher the HTTP handlers and the
// background loops use.
type statsProvider interface {
	Results(ctx context.Context, force bool) ([]model.StudentResult, error)
	LastRefreshed() time.Time
}

// breakerView exposes source health to the dashboard.
type breakerView interface {
	Snapshot() map[string]resilience.SourceState
}

// reportSender delivers a built report.
type reportSender interface {
	Configured() bool
	Send(ctx context.Context, r *report.Report) error
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initStats(ctx, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		weekday, err := parseWeekday(cfg.Report.Weekday)
		if err != nil {
			return err
		}

		// Background loops: periodic refresh keeps the dashboard warm,
		// the report loop mails the weekly summary.
		if cfg.Refresh.IntervalMins > 0 {
			go refreshLoop(ctx, env.Refresher, time.Duration(cfg.Refresh.IntervalMins)*time.Minute)
		}
		go reportLoop(ctx, env.Refresher, env.Mailer, weekday, cfg.Report.Hour, cfg.Report.InconsistentThreshold)

		handler := newRouter(env.Refresher, env.Breaker, env.Mailer, cfg.Report.InconsistentThreshold, cfg.Server.CORSOrigins)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: handler,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

type statsResponse struct {
	Students      []model.StudentResult `json:"students"`
	Total         int                   `json:"total"`
	LastRefreshed string                `json:"last_refreshed"`
}

// newRouter builds the dashboard API. Split out from the serve command
// so handler tests run against the real routes.
func newRouter(provider statsProvider, breakers breakerView, mailer reportSender, threshold int, corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/stats", func(w http.ResponseWriter, req *http.Request) {
		force := req.URL.Query().Get("refresh") == "1"
		results, err := provider.Results(req.Context(), force)
		if err != nil {
			zap.L().Error("stats request failed", zap.Error(err))
			http.Error(w, `{"error":"stats unavailable"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, statsResponse{
			Students:      results,
			Total:         len(results),
			LastRefreshed: provider.LastRefreshed().UTC().Format(time.RFC3339),
		})
	})

	r.Get("/api/stats/csv", func(w http.ResponseWriter, req *http.Request) {
		results, err := provider.Results(req.Context(), false)
		if err != nil {
			zap.L().Error("csv request failed", zap.Error(err))
			http.Error(w, `{"error":"stats unavailable"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=leetcode_stats.csv")
		if err := export.WriteCSV(w, results); err != nil {
			zap.L().Error("csv export failed", zap.Error(err))
		}
	})

	r.Get("/api/breakers", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"sources": breakers.Snapshot()})
	})

	r.Get("/api/report", func(w http.ResponseWriter, req *http.Request) {
		results, err := provider.Results(req.Context(), false)
		if err != nil {
			zap.L().Error("report request failed", zap.Error(err))
			http.Error(w, `{"error":"stats unavailable"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, report.Build(results, threshold, time.Now()))
	})

	r.Post("/api/refresh", func(w http.ResponseWriter, req *http.Request) {
		results, err := provider.Results(req.Context(), true)
		if err != nil {
			zap.L().Error("forced refresh failed", zap.Error(err))
			http.Error(w, `{"error":"refresh failed"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"refreshed":      len(results),
			"last_refreshed": provider.LastRefreshed().UTC().Format(time.RFC3339),
		})
	})

	r.Post("/api/report/send", func(w http.ResponseWriter, req *http.Request) {
		if !mailer.Configured() {
			http.Error(w, `{"error":"email not configured"}`, http.StatusServiceUnavailable)
			return
		}
		results, err := provider.Results(req.Context(), false)
		if err != nil {
			zap.L().Error("report send fetch failed", zap.Error(err))
			http.Error(w, `{"error":"stats unavailable"}`, http.StatusInternalServerError)
			return
		}
		rep := report.Build(results, threshold, time.Now())
		if err := mailer.Send(req.Context(), rep); err != nil {
			zap.L().Error("report email failed", zap.Error(err))
			http.Error(w, `{"error":"send failed"}`, http.StatusBadGateway)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"sent": true, "subject": rep.Subject()})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// refreshLoop re-fetches the roster on a fixed interval so dashboard
// reads stay warm between requests.
func refreshLoop(ctx context.Context, provider statsProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	zap.L().Info("background refresh enabled", zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := provider.Results(ctx, true); err != nil {
				zap.L().Warn("scheduled refresh failed", zap.Error(err))
			}
		}
	}
}

// reportLoop mails the weekly report at the configured weekday and hour,
// then reschedules for the following week.
func reportLoop(ctx context.Context, provider statsProvider, mailer reportSender, weekday time.Weekday, hour, threshold int) {
	for {
		next := nextReportTime(time.Now().UTC(), weekday, hour)
		zap.L().Info("weekly report scheduled", zap.Time("next", next))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		results, err := provider.Results(ctx, false)
		if err != nil {
			zap.L().Error("weekly report fetch failed", zap.Error(err))
			continue
		}
		rep := report.Build(results, threshold, time.Now())
		if err := mailer.Send(ctx, rep); err != nil {
			if errors.Is(err, report.ErrNotConfigured) {
				zap.L().Info("smtp not configured, weekly report available on the dashboard only")
			} else {
				zap.L().Error("weekly report email failed", zap.Error(err))
			}
			continue
		}
		zap.L().Info("weekly report sent", zap.String("subject", rep.Subject()))
	}
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// parseWeekday maps a config weekday name onto time.Weekday.
func parseWeekday(s string) (time.Weekday, error) {
	if d, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]; ok {
		return d, nil
	}
	return 0, eris.Errorf("unknown weekday %q", s)
}

// nextReportTime returns the next occurrence of the weekly report slot
// strictly after now.
func nextReportTime(now time.Time, weekday time.Weekday, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	next = next.AddDate(0, 0, (int(weekday)-int(now.Weekday())+7)%7)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
