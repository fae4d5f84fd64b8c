package runtime

import (
	"context"
	"errors"
	"time"

	"github.com/rzbill/relay/internal/cdc"
	cfgpkg "github.com/rzbill/relay/internal/config"
	"github.com/rzbill/relay/internal/messages"
	"github.com/rzbill/relay/internal/metrics"
	pebblestore "github.com/rzbill/relay/internal/storage/pebble"
	"github.com/rzbill/relay/internal/subscriptions"
	"github.com/rzbill/relay/internal/table"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Config        cfgpkg.Config
	Metrics       *metrics.Metrics
}

// Runtime wires storage, the change feed, and the domain stores for a
// single-node instance.
type Runtime struct {
	db       *pebblestore.DB
	feed     *cdc.Feed
	tbl      *table.Table
	subs     *subscriptions.Store
	messages *messages.Store
	config   cfgpkg.Config
	metrics  *metrics.Metrics
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	mets := opts.Metrics
	if mets == nil {
		mets = metrics.New()
	}
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Metrics:       mets,
	})
	if err != nil {
		return nil, err
	}
	feed, err := cdc.Open(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	tbl := table.New(db, feed)
	rt := &Runtime{
		db:       db,
		feed:     feed,
		tbl:      tbl,
		subs:     subscriptions.New(tbl),
		messages: messages.New(tbl, messages.NewHTMLSanitizer()),
		config:   opts.Config,
		metrics:  mets,
	}
	return rt, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	it.Close()
	return nil
}

// Table returns the shared record table.
func (r *Runtime) Table() *table.Table { return r.tbl }

// Feed returns the change feed driving dispatch.
func (r *Runtime) Feed() *cdc.Feed { return r.feed }

// Subscriptions returns the channel membership store.
func (r *Runtime) Subscriptions() *subscriptions.Store { return r.subs }

// Messages returns the message store.
func (r *Runtime) Messages() *messages.Store { return r.messages }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Metrics returns the metrics registry shared across components.
func (r *Runtime) Metrics() *metrics.Metrics { return r.metrics }
