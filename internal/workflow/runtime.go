package workflow

import (
	"log/slog"

	"github.com/JaimeStill/addrsplit/internal/pipelines"
)

// Runtime bundles the dependencies Execute requires.
// It is constructed by higher-level composition code from the registered
// pipeline adapters.
type Runtime struct {
	Registry *pipelines.Registry
	Logger   *slog.Logger
}
