//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"upload-ai/internal/app/api"
	"upload-ai/internal/app/api/upload_server"
	"upload-ai/internal/app/audio"
	"upload-ai/internal/app/pipeline"
	"upload-ai/internal/config"
)

var machineSet = wire.NewSet(
	provideEngineConfig,
	provideServiceConfig,
	audio.NewEngine,
	upload_server.NewClient,
	pipeline.NewMetrics,
	pipeline.NewMachine,
	wire.Bind(new(pipeline.Transcoder), new(*audio.Engine)),
	wire.Bind(new(api.Coordinator), new(*upload_server.Client)),
)

// InitializeMachine builds a pipeline machine for one-shot CLI runs.
func InitializeMachine(cfg *config.Config, logger *zap.Logger, registerer prometheus.Registerer) *pipeline.Machine {
	wire.Build(machineSet)
	return &pipeline.Machine{}
}

// InitializeApplication builds the handles used by the HTTP server.
func InitializeApplication(cfg *config.Config, logger *zap.Logger, registerer prometheus.Registerer) *Application {
	wire.Build(machineSet, provideRegistry, wire.Struct(new(Application), "*"))
	return &Application{}
}
