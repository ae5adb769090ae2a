package bootstrap

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fulldump/box"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fulldump/latestat/api"
	"github.com/fulldump/latestat/configuration"
	"github.com/fulldump/latestat/service"
)

var VERSION = "dev"

func Bootstrap(c *configuration.Configuration) (start, stop func()) {

	logger, err := c.Logger()
	if err != nil {
		fmt.Println("ERROR:", err.Error())
		os.Exit(-1)
	}

	gcInterval, err := time.ParseDuration(c.GCInterval)
	if err != nil {
		logger.Fatal("bad gc interval", zap.String("gc_interval", c.GCInterval), zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := service.NewService(service.Config{
		Logger:          logger,
		Registerer:      reg,
		IgnoreClears:    c.IgnoreClears,
		MaxRowsPerChunk: c.MaxRowsPerChunk,
	})

	b := api.Build(s, VERSION)
	if c.EnableCompression {
		b.WithInterceptors(api.Compression)
	}
	b.WithInterceptors(
		api.AccessLog(logger.Named("access")),
		api.PrettyErrorInterceptor,
		api.RecoverFromPanic(logger),
	)

	mux := http.NewServeMux()
	if c.MetricsPath != "" {
		mux.Handle(c.MetricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	}
	mux.Handle("/", box.Box2Http(b))

	server := &http.Server{
		Addr:    c.HttpAddr,
		Handler: mux,
	}

	ln, err := net.Listen("tcp", c.HttpAddr)
	if err != nil {
		logger.Fatal("listen", zap.String("addr", c.HttpAddr), zap.Error(err))
	}
	logger.Info("listening", zap.String("addr", c.HttpAddr), zap.String("version", VERSION))

	ctx, cancel := context.WithCancel(context.Background())

	stop = func() {
		cancel()
		server.Shutdown(context.Background())
		logger.Sync()
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		for {
			sig := <-signalChan
			logger.Info("signal received", zap.String("signal", sig.String()))
			stop()
		}
	}()

	start = func() {

		wg := &sync.WaitGroup{}

		if c.GCTargetBytes > 0 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				garbageCollect(ctx, s, c.GCTargetBytes, gcInterval)
			}()
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			err := server.Serve(ln)
			if err != nil && err != http.ErrServerClosed {
				logger.Error("serve", zap.Error(err))
			}
		}()

		wg.Wait()
	}

	return
}

// garbageCollect keeps the store under targetBytes until ctx is done.
func garbageCollect(ctx context.Context, s service.Servicer, targetBytes uint64, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.GarbageCollect(targetBytes)
		}
	}
}
