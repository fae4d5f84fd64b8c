package serverrun

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/rzbill/relay/internal/cdc"
	cfgpkg "github.com/rzbill/relay/internal/config"
	"github.com/rzbill/relay/internal/dispatch"
	"github.com/rzbill/relay/internal/lifecycle"
	"github.com/rzbill/relay/internal/runtime"
	wsserver "github.com/rzbill/relay/internal/server/ws"
	pebblestore "github.com/rzbill/relay/internal/storage/pebble"
	logpkg "github.com/rzbill/relay/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// small wrapper to allow testing; replaced by os.Getenv at build time
var getenv = func(key string) string { return os.Getenv(key) }

type Options struct {
	DataDir       string
	Addr          string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
}

// Run starts the websocket server and the change-feed dispatcher and
// blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	// Layer a local signal context over the provided one so callers that
	// pass plain contexts still get clean SIGINT/SIGTERM shutdown.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	if opts.Addr == "" {
		opts.Addr = opts.Config.Server.Addr
	}

	logCfg := &logpkg.Config{
		Level:  getenvDefault("RELAY_LOG_LEVEL", "info"),
		Format: getenvDefault("RELAY_LOG_FORMAT", "text"),
	}
	procLogger, err := logpkg.ApplyConfig(logCfg)
	if err != nil {
		procLogger = logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}

	// Redirect stdlib logs (e.g., Pebble) to our logger
	logpkg.RedirectStdLog(procLogger)

	storeDir := filepath.Join(opts.DataDir, "store")
	rt, err := runtime.Open(runtime.Options{
		DataDir:       storeDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Config:        opts.Config,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	procLogger.Info("Starting relay server",
		logpkg.Str("addr", opts.Addr),
		logpkg.Str("data_dir", storeDir),
		logpkg.Str("default_channel", opts.Config.DefaultChannel),
		logpkg.Str("level", logCfg.Level),
		logpkg.Str("format", logCfg.Format),
	)

	lc := lifecycle.New(rt.Subscriptions(), opts.Config.DefaultChannel, procLogger)
	srv := wsserver.New(rt, lc, procLogger)
	dispatcher := dispatch.New(rt.Subscriptions(), srv.Registry(), rt.Metrics(), procLogger)
	srv.SetDispatcher(dispatcher)
	tailer := cdc.NewTailer(rt.Feed(), "dispatch", dispatcher.HandleBatch, procLogger)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.ListenAndServe(sctx, opts.Addr); err != nil && sctx.Err() == nil {
			procLogger.Error("server error", logpkg.Err(err))
			stop()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tailer.Run(sctx); err != nil && sctx.Err() == nil {
			procLogger.Error("dispatcher error", logpkg.Err(err))
			stop()
		}
	}()

	<-sctx.Done()
	// Shut servers down before closing the runtime/DB to avoid races.
	srv.Close()
	wg.Wait()
	return nil
}
