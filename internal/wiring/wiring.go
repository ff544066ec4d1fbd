// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/lockstep/internal/adapters/cas"
	_ "go.trai.ch/lockstep/internal/adapters/config"
	_ "go.trai.ch/lockstep/internal/adapters/env"
	_ "go.trai.ch/lockstep/internal/adapters/fetch"
	_ "go.trai.ch/lockstep/internal/adapters/fs"
	_ "go.trai.ch/lockstep/internal/adapters/logger"
	_ "go.trai.ch/lockstep/internal/adapters/manifest"
	_ "go.trai.ch/lockstep/internal/adapters/state"
	_ "go.trai.ch/lockstep/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/lockstep/internal/app"
	_ "go.trai.ch/lockstep/internal/engine/installer"
	_ "go.trai.ch/lockstep/internal/engine/planner"
)
