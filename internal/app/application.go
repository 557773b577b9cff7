package app

import (
	"upload-ai/internal/app/api/upload_server"
	"upload-ai/internal/app/audio"
	"upload-ai/internal/app/pipeline"
	"upload-ai/internal/config"
)

// Application holds the long-lived handles shared by the CLI and the HTTP server.
type Application struct {
	Engine   *audio.Engine
	Machine  *pipeline.Machine
	Registry *pipeline.Registry
}

func provideEngineConfig(cfg *config.Config) audio.EngineConfig {
	return audio.EngineConfig{
		FFmpegPath:  cfg.Engine.FFmpeg,
		FFprobePath: cfg.Engine.FFprobe,
		JobTimeout:  cfg.Engine.TranscodeTimeout,
		TempDir:     cfg.Engine.TempDir,
	}
}

func provideServiceConfig(cfg *config.Config) upload_server.Config {
	return upload_server.Config{
		BaseURL:  cfg.Service.BaseURL,
		Timeout:  cfg.Service.Timeout,
		APIToken: cfg.Service.APIToken,
		Headers:  cfg.Service.Headers,
	}
}

func provideRegistry(cfg *config.Config) *pipeline.Registry {
	return pipeline.NewRegistry(cfg.Retention)
}
