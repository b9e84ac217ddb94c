package index

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/castlebay/sitechat/browse"
	"github.com/castlebay/sitechat/crawl"
)

// Trigger runs a full-site indexing pass at most once per process.
// Concurrent callers race on an atomic claim; exactly one wins and the
// rest return immediately. There is no reset: a failed run still counts
// as the process's one run, matching the lazily-triggered startup model
// where a restart is the recovery path.
type Trigger struct {
	indexer *Indexer
	opener  browse.PageOpener
	seed    string
	opts    crawl.Options
	logger  *slog.Logger

	claimed atomic.Bool
	done    chan struct{}
}

// NewTrigger wires a Trigger for the given site.
func NewTrigger(ix *Indexer, opener browse.PageOpener, seed string, opts crawl.Options) *Trigger {
	return &Trigger{
		indexer: ix,
		opener:  opener,
		seed:    seed,
		opts:    opts,
		logger:  ix.logger,
		done:    make(chan struct{}),
	}
}

// TriggerOnce starts the indexing run in the background if no caller has
// claimed it yet. Returns true for the claiming call, false for every
// other call. ctx should be the process context, not the request's: the
// run outlives the request that triggered it.
func (t *Trigger) TriggerOnce(ctx context.Context) bool {
	if !t.claimed.CompareAndSwap(false, true) {
		return false
	}
	go func() {
		defer close(t.done)
		sum, err := t.indexer.EnsureAllIndexed(ctx, t.opener, t.seed, t.opts)
		if err != nil {
			t.logger.Error("index: triggered run failed", "seed", t.seed, "error", err)
			return
		}
		t.logger.Info("index: triggered run finished", "seed", t.seed,
			"indexed", sum.Indexed, "failed", sum.Failed)
	}()
	return true
}

// Started reports whether the run has been claimed.
func (t *Trigger) Started() bool { return t.claimed.Load() }

// Done is closed when the triggered run finishes. Used by tests and by
// operators draining shutdown.
func (t *Trigger) Done() <-chan struct{} { return t.done }
