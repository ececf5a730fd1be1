package media

import (
	"fmt"
	"log/slog"
	"os"

	"go.uber.org/fx"

	"github.com/GS-Pro2025/movewise/internal/config"
)

// Module exposes the image converter to the fx graph.
var Module = fx.Provide(newConverter)

type converterParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newConverter(p converterParams) (*Converter, error) {
	if err := os.MkdirAll(p.Config.UploadDir, 0o700); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return NewConverter(p.Config.UploadDir, p.Logger), nil
}
