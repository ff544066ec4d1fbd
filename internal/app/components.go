package app

import (
	"go.trai.ch/lockstep/internal/adapters/config"
	"go.trai.ch/lockstep/internal/core/ports"
)

// Components bundles everything the CLI needs after boot.
type Components struct {
	App      *App
	Settings *config.Settings
	Logger   ports.Logger
	Tracer   ports.Tracer
}
