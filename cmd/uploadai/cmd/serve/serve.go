package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"upload-ai/cmd/uploadai/cmd/shared"
	"upload-ai/internal/api/server"
	"upload-ai/internal/api/v1/services"
	"upload-ai/internal/app"
)

const shutdownTimeout = 10 * time.Second

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API for submitting and following runs",
	Long: `Run the HTTP API for submitting and following runs

- POST   /api/v1/runs             multipart "file" or JSON {"url"}, plus "prompt"
- GET    /api/v1/runs/:id         current state of a run
- GET    /api/v1/runs/:id/events  Server-Sent Events until the run finishes
- DELETE /api/v1/runs/:id         cancel a run
- GET    /health, /metrics`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := shared.Load(false)
		if err != nil {
			return err
		}
		defer logger.Sync()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		application := app.InitializeApplication(cfg, logger, reg)
		if err := application.Engine.Load(); err != nil {
			logger.Warn("transcoding engine unavailable; local uploads will fail", zap.Error(err))
		}

		srv := server.NewServer(server.Config{
			Host:        cfg.HTTP.Host,
			Port:        cfg.HTTP.Port,
			ReadTimeout: 5 * time.Minute,
			IdleTimeout: 2 * time.Minute,
			Environment: cfg.Environment,
			CORSOrigins: cfg.HTTP.CORSOrigins,
		}, server.Dependencies{
			RunService: services.NewRunService(application.Machine, application.Registry, logger),
			Health:     application.Engine,
			Gatherer:   reg,
		}, logger)

		if err := srv.Start(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()

		if n := application.Registry.CancelAll(); n > 0 {
			logger.Info("cancelled in-flight runs", zap.Int("count", n))
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
