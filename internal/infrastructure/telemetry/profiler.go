package telemetry

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/grafana/pyroscope-go"
	"github.com/rental/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Profiler runs continuous profiling against a Pyroscope server
type Profiler struct {
	p    *pyroscope.Profiler
	once sync.Once
	err  error
}

func newProfiler(cfg config.TelemetryConfig, logger *zap.Logger) (*Profiler, error) {
	if !cfg.ProfilingEnabled {
		return &Profiler{}, nil
	}
	if cfg.ProfilingServer == "" || cfg.ServiceName == "" {
		return nil, errors.New("profiling needs telemetry.profiling_server and telemetry.service_name")
	}

	pc := pyroscope.Config{
		ApplicationName:   cfg.ServiceName,
		ServerAddress:     cfg.ProfilingServer,
		BasicAuthUser:     cfg.ProfilingAuthUser,
		BasicAuthPassword: cfg.ProfilingAuthPass,
		Logger:            pyroscopeLogger{logger.Named("pyroscope").Sugar()},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	}
	if host, _ := os.Hostname(); host != "" {
		pc.Tags = map[string]string{"hostname": host}
	}

	p, err := pyroscope.Start(pc)
	if err != nil {
		return nil, fmt.Errorf("start profiler: %w", err)
	}
	return &Profiler{p: p}, nil
}

func (p *Profiler) IsEnabled() bool {
	return p.p != nil
}

// Stop uploads the last profiles. Later calls return the first result.
func (p *Profiler) Stop() error {
	if p.p == nil {
		return nil
	}
	p.once.Do(func() {
		if err := p.p.Stop(); err != nil {
			p.err = fmt.Errorf("stop profiler: %w", err)
		}
	})
	return p.err
}

// pyroscopeLogger adapts zap to pyroscope.Logger
type pyroscopeLogger struct {
	*zap.SugaredLogger
}
