package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"

	"github.com/orrn/batchfarm/internal/config"
)

// New builds the root logger. Components take named sub-loggers from it.
func New(cfg config.LoggingConfig, out io.Writer) hclog.Logger {
	if out == nil {
		out = os.Stderr
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:       "batchfarm",
		Level:      hclog.LevelFromString(cfg.Level),
		JSONFormat: cfg.Format == "json",
		Output:     out,
		Color:      hclog.ColorOff,
	})
}
