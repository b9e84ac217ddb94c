// Package crawl discovers the set of same-origin pages reachable from a
// seed URL. Discovery runs a bounded worker pool over an explicit work
// queue; a shared visited set guarantees termination on cyclic link graphs
// and caps each URL at a single fetch.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"sync"

	"github.com/castlebay/sitechat/browse"
	"github.com/castlebay/sitechat/urlcheck"
)

// Options tunes a crawl run.
type Options struct {
	// MaxDepth is how many link hops to follow from the seed. The seed
	// itself is depth 0. Defaults to 2.
	MaxDepth int
	// Workers bounds concurrent page fetches. Defaults to 4.
	Workers int
	// AllowPrivate skips the private-address check on the seed, for
	// crawling a local or staging deployment of the site.
	AllowPrivate bool
	Logger       *slog.Logger
}

func (o *Options) defaults() {
	if o.MaxDepth <= 0 {
		o.MaxDepth = 2
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

type item struct {
	url   string
	depth int
}

// Site crawls same-origin pages reachable from seed, up to opts.MaxDepth
// link hops. Per-URL failures are logged and contained: a page that fails
// to open contributes nothing to the result and does not abort the run.
// Returns the sorted set of successfully fetched URLs, always including
// the seed.
func Site(ctx context.Context, opener browse.PageOpener, seed string, opts Options) ([]string, error) {
	opts.defaults()

	validate := urlcheck.Validate
	if opts.AllowPrivate {
		validate = urlcheck.ValidateLoose
	}
	if err := validate(seed); err != nil {
		return nil, fmt.Errorf("crawl: seed %s: %w", seed, err)
	}
	origin, err := url.Parse(seed)
	if err != nil {
		return nil, fmt.Errorf("crawl: parse seed: %w", err)
	}
	start, err := normalize(seed, origin)
	if err != nil {
		return nil, fmt.Errorf("crawl: seed: %w", err)
	}

	c := &crawler{
		opener:  opener,
		origin:  origin,
		opts:    opts,
		visited: make(map[string]bool),
		reached: make(map[string]bool),
	}
	c.cond = sync.NewCond(&c.mu)

	c.enqueue(item{url: start, depth: 0})

	stop := context.AfterFunc(ctx, func() {
		c.mu.Lock()
		c.cancelled = true
		c.mu.Unlock()
		c.cond.Broadcast()
	})
	defer stop()

	var wg sync.WaitGroup
	for range opts.Workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.work(ctx)
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("crawl: %w", err)
	}

	c.mu.Lock()
	c.reached[start] = true
	urls := make([]string, 0, len(c.reached))
	for u := range c.reached {
		urls = append(urls, u)
	}
	c.mu.Unlock()
	sort.Strings(urls)
	return urls, nil
}

type crawler struct {
	opener browse.PageOpener
	origin *url.URL
	opts   Options

	mu        sync.Mutex
	cond      *sync.Cond
	queue     []item
	active    int             // workers currently processing an item
	visited   map[string]bool // every URL ever dequeued; guards against cycles
	reached   map[string]bool // URLs whose page actually opened
	cancelled bool
}

// enqueue adds an item unless its URL has already been seen. Callers must
// not hold c.mu.
func (c *crawler) enqueue(it item) {
	c.mu.Lock()
	if !c.visited[it.url] {
		c.queue = append(c.queue, it)
	}
	c.mu.Unlock()
	c.cond.Signal()
}

// next blocks until an item is available or the crawl is complete. An item
// whose URL was visited between enqueue and dequeue is skipped here, so a
// URL discovered concurrently by two pages is still fetched once.
func (c *crawler) next() (item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for {
		for len(c.queue) == 0 && c.active > 0 && !c.cancelled {
			c.cond.Wait()
		}
		if c.cancelled || len(c.queue) == 0 {
			return item{}, false
		}
		it := c.queue[0]
		c.queue = c.queue[1:]
		if c.visited[it.url] {
			continue
		}
		c.visited[it.url] = true
		c.active++
		return it, true
	}
}

func (c *crawler) done() {
	c.mu.Lock()
	c.active--
	idle := c.active == 0 && len(c.queue) == 0
	c.mu.Unlock()
	if idle {
		c.cond.Broadcast()
	}
}

func (c *crawler) work(ctx context.Context) {
	for {
		it, ok := c.next()
		if !ok {
			return
		}
		if c.visit(ctx, it) {
			c.mu.Lock()
			c.reached[it.url] = true
			c.mu.Unlock()
		}
		c.done()
	}
}

// visit fetches one page and enqueues its same-origin links. Failures are
// contained to the URL. Reports whether the page opened, so that URLs
// whose fetch failed stay out of the crawl result.
func (c *crawler) visit(ctx context.Context, it item) bool {
	log := c.opts.Logger.With("url", it.url, "depth", it.depth)

	page, err := c.opener.Open(ctx, it.url)
	if err != nil {
		log.Warn("crawl: open failed", "error", err)
		return false
	}
	defer page.Close()

	if it.depth >= c.opts.MaxDepth {
		return true
	}

	links, err := page.Links(ctx)
	if err != nil {
		log.Warn("crawl: link collection failed", "error", err)
		return true
	}

	for _, raw := range links {
		norm, err := normalize(raw, c.origin)
		if err != nil {
			continue
		}
		if !sameOrigin(norm, c.origin) {
			continue
		}
		c.enqueue(item{url: norm, depth: it.depth + 1})
	}
	log.Debug("crawl: page visited", "links", len(links))
	return true
}
