package config

import "go.uber.org/fx"

// Module provides *Config loaded from .env, flags and environment.
var Module = fx.Provide(Load)
