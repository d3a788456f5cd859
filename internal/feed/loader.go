package feed

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"refine-board/internal/engine"
)

// ErrStale marks a load that finished after a newer load was issued; its
// result must be discarded so a slow response can never clobber a newer one.
var ErrStale = errors.New("feed: load superseded by a newer request")

// Result is one complete, consistent data load.
type Result struct {
	Meta          *Meta
	Records       []engine.PriceRecord
	LastTimestamp time.Time
}

// Loader performs generation-guarded full data loads. Both feeds are fetched
// jointly; if either fails the whole load fails and the caller keeps its
// previous state.
type Loader struct {
	client  *Client
	metaURL string
	dataURL string
	from    string
	to      string

	gen atomic.Int64
}

// NewLoader creates a Loader for the two feed URLs with an optional JST
// ingest window.
func NewLoader(client *Client, metaURL, dataURL, from, to string) *Loader {
	return &Loader{
		client:  client,
		metaURL: metaURL,
		dataURL: dataURL,
		from:    from,
		to:      to,
	}
}

// Load fetches and parses both feeds. Each call stamps a new generation;
// a call that is no longer the newest when it completes returns ErrStale.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	return l.loadWithGen(ctx, l.gen.Add(1))
}

func (l *Loader) loadWithGen(ctx context.Context, gen int64) (*Result, error) {
	var metaText, dataText string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		metaText, err = l.client.FetchTSV(gctx, l.metaURL)
		return err
	})
	g.Go(func() error {
		var err error
		dataText, err = l.client.FetchTSV(gctx, l.dataURL)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	meta, err := ParseMeta(ctx, metaText)
	if err != nil {
		return nil, err
	}
	records, latest, err := ParsePrices(ctx, dataText, meta, l.from, l.to)
	if err != nil {
		return nil, err
	}

	if l.gen.Load() != gen {
		return nil, ErrStale
	}
	return &Result{Meta: meta, Records: records, LastTimestamp: latest}, nil
}
