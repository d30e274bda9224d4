package observability

import (
	"context"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/shirou/gopsutil/v3/process"
	otelruntime "go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xtree/lib/xlog"
)

const (
	AppStatsName = "xtree/app"
)

var (
	once        sync.Once
	errAppStats error
)

type appStats struct {
	ctx              context.Context
	shutdownCallback func(ctx context.Context) error
	undoMaxProcs     func()
	goroutines       metric.Int64ObservableUpDownCounter
	processes        metric.Int64ObservableUpDownCounter
	rss              metric.Int64ObservableGauge
}

func (stats *appStats) waitForShutdown() {
	if stats == nil || (stats.shutdownCallback == nil && stats.undoMaxProcs == nil) {
		return
	}
	go func() {
		<-stats.ctx.Done()
		if stats.undoMaxProcs != nil {
			stats.undoMaxProcs()
		}
		if stats.shutdownCallback != nil {
			_ = stats.shutdownCallback(context.Background())
		}
	}()
}

type appStatsCfg struct {
	shutdownCallback func(ctx context.Context) error
	maxProcsLogger   xlog.XLogger
	maxProcs         bool
}

type AppStatsOpt func(*appStatsCfg)

// WithAppStatsShutdown runs the callback, an exporter shutdown usually,
// once the install context is done.
func WithAppStatsShutdown(callback func(ctx context.Context) error) AppStatsOpt {
	return func(cfg *appStatsCfg) {
		cfg.shutdownCallback = callback
	}
}

// WithAppStatsMaxProcs sets GOMAXPROCS to the container CPU quota before
// it is reported. It is restored once the install context is done.
func WithAppStatsMaxProcs(logger xlog.XLogger) AppStatsOpt {
	return func(cfg *appStatsCfg) {
		cfg.maxProcs = true
		cfg.maxProcsLogger = logger
	}
}

func currentRSS(ctx context.Context) (int64, error) {
	proc, err := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	if err != nil {
		return 0, err
	}
	mem, err := proc.MemoryInfoWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return int64(mem.RSS), nil
}

// InstallAppStats registers the process instruments and the go runtime
// instrumentation on the global meter provider. Only the first call
// takes effect, the later calls return the first result.
func InstallAppStats(ctx context.Context, name string, opts ...AppStatsOpt) error {
	once.Do(func() {
		cfg := &appStatsCfg{}
		for _, o := range opts {
			o(cfg)
		}

		builder := &strings.Builder{}
		builder.WriteString(AppStatsName)
		if len(strings.TrimSpace(name)) > 0 {
			builder.Write([]byte("/"))
			builder.WriteString(name)
		} else {
			builder.Write([]byte("/"))
			builder.WriteString("default")
		}
		name = builder.String()

		stats := &appStats{
			ctx:              ctx,
			shutdownCallback: cfg.shutdownCallback,
		}
		if cfg.maxProcs {
			logf := func(format string, args ...any) {}
			if cfg.maxProcsLogger != nil {
				logf = func(format string, args ...any) {
					cfg.maxProcsLogger.Logf(zapcore.InfoLevel, format, args...)
				}
			}
			undo, err := maxprocs.Set(maxprocs.Logger(logf))
			if err != nil {
				// The GOMAXPROCS is left untouched.
				logf("maxprocs: unable to read the CPU quota: %v", err)
			}
			stats.undoMaxProcs = undo
		}

		meter := otel.Meter(name, metric.WithInstrumentationVersion(otelruntime.Version()))
		stats.goroutines = lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
			"app.core.goroutines",
			metric.WithDescription(`The application goroutines' info.`),
			metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
				ob.Observe(int64(runtime.NumGoroutine()))
				return nil
			}),
		))
		stats.processes = lo.Must[metric.Int64ObservableUpDownCounter](meter.Int64ObservableUpDownCounter(
			"app.core.processes",
			metric.WithDescription(`The application processes' info.`),
			metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
				ob.Observe(int64(runtime.GOMAXPROCS(0)))
				return nil
			}),
		))
		stats.rss = lo.Must[metric.Int64ObservableGauge](meter.Int64ObservableGauge(
			"app.core.memory.rss",
			metric.WithDescription(`The application resident set size.`),
			metric.WithUnit("By"),
			metric.WithInt64Callback(func(ctx context.Context, ob metric.Int64Observer) error {
				rss, err := currentRSS(ctx)
				if err != nil {
					return err
				}
				ob.Observe(rss)
				return nil
			}),
		))
		if errAppStats = otelruntime.Start(); errAppStats != nil {
			return
		}
		stats.waitForShutdown()
	})
	return errAppStats
}
