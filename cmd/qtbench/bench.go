package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/influxdata/tdigest"
	"github.com/pingcap/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	quadtree "github.com/rob05c/cquadtree"
	"github.com/tidwall/lotsa"
	atomicutil "go.uber.org/atomic"
	"go.uber.org/zap"
)

var boundary = quadtree.BoundingBox{
	Center:        quadtree.Point{X: 100.0, Y: 100.0},
	HalfDimension: quadtree.Point{X: 50.0, Y: 50.0},
}

// queryHalfDimension is the size of the random range queries.
var queryHalfDimension = quadtree.Point{X: 5.0, Y: 5.0}

// drainTimeout bounds how long an inserter waits to reclaim what it retired.
const drainTimeout = 5 * time.Second

func randPoint(rng *rand.Rand) quadtree.Point {
	return quadtree.Point{X: rng.Float64()*100.0 + 50.0, Y: rng.Float64()*100.0 + 50.0}
}

type bench struct {
	cfg *Config
	out io.Writer
}

func newBench(cfg *Config, out io.Writer) *bench {
	return &bench{cfg: cfg, out: out}
}

func (b *bench) run(ctx context.Context) error {
	if b.cfg.MetricsAddr != "" {
		srv := &http.Server{Addr: b.cfg.MetricsAddr, Handler: promhttp.Handler()}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server stopped", zap.String("addr", b.cfg.MetricsAddr), zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	kind := quadtree.LockBased
	if b.cfg.LockFree {
		kind = quadtree.LockFree
	}
	qt, err := quadtree.New(kind, boundary, b.cfg.Capacity)
	if err != nil {
		return err
	}
	fmt.Fprintf(b.out, "%s\nthreads: %d\npoints: %d\ncapacity: %d\n", kind, b.cfg.Threads, b.cfg.Points, b.cfg.Capacity)

	start := time.Now()
	inserted, queries := b.insert(ctx, qt)
	elapsed := time.Since(start)
	fmt.Fprintf(b.out, "inserted %d in %s with %d threads.\n", inserted, elapsed, b.cfg.Threads)
	if b.cfg.QueryThreads > 0 {
		fmt.Fprintf(b.out, "queries during insert: %d\n", queries)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	b.query(qt)

	if b.cfg.PNG != "" {
		walker, ok := qt.(quadtree.Walker)
		if !ok {
			return errConfig.GenWithStackByArgs(fmt.Sprintf("%s tree can not be rendered", kind))
		}
		if err := renderFile(b.cfg.PNG, walker, qt.Query(qt.Boundary())); err != nil {
			return err
		}
		fmt.Fprintf(b.out, "wrote %s\n", b.cfg.PNG)
	}
	return nil
}

// inserter is one goroutine's way into the tree.
type inserter interface {
	Insert(p quadtree.Point) bool
}

// insert adds the configured number of random points from the configured
// number of goroutines, optionally querying the whole tree concurrently. It
// returns the number of points inserted and of concurrent queries run.
func (b *bench) insert(ctx context.Context, qt quadtree.Quadtree) (int64, int64) {
	threads := b.cfg.Threads
	tpoints := b.cfg.Points / threads

	inserters := make([]inserter, threads)
	rngs := make([]*rand.Rand, threads)
	seed := time.Now().UnixNano()
	for i := range inserters {
		inserters[i] = qt
		if lf, ok := qt.(*quadtree.LockfreeQuadtree); ok {
			inserters[i] = lf.NewHandle()
		}
		rngs[i] = rand.New(rand.NewSource(seed + int64(i)))
	}

	doneInserting := atomicutil.NewBool(false)
	numQueries := atomicutil.NewInt64(0)
	var wg sync.WaitGroup
	for i := 0; i < b.cfg.QueryThreads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !doneInserting.Load() {
				qt.Query(qt.Boundary())
				numQueries.Inc()
			}
		}()
	}

	var inserted, failed atomicutil.Int64
	lotsa.Ops(tpoints*threads, threads, func(_, t int) {
		if ctx.Err() != nil {
			return
		}
		if inserters[t].Insert(randPoint(rngs[t])) {
			inserted.Inc()
		} else {
			failed.Inc()
		}
	})
	doneInserting.Store(true)
	wg.Wait()

	if n := failed.Load(); n > 0 {
		log.Warn("some inserts failed", zap.Int64("failed", n))
	}
	b.releaseHandles(inserters)
	return inserted.Load(), numQueries.Load()
}

func (b *bench) releaseHandles(inserters []inserter) {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for _, ins := range inserters {
		h, ok := ins.(*quadtree.Handle)
		if !ok {
			continue
		}
		if err := h.Drain(ctx); err != nil {
			log.Warn("retired bucket headers left unreclaimed", zap.Int("pending", h.Pending()), zap.Error(err))
		}
		h.Close()
	}
}

// query runs the configured number of random range queries one after
// another and reports their latency.
func (b *bench) query(qt quadtree.Quadtree) {
	if b.cfg.Queries == 0 {
		return
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	latency := tdigest.New()
	found := 0
	start := time.Now()
	for i := 0; i != b.cfg.Queries; i++ {
		box := quadtree.BoundingBox{Center: randPoint(rng), HalfDimension: queryHalfDimension}
		qstart := time.Now()
		found += len(qt.Query(box))
		latency.Add(float64(time.Since(qstart).Nanoseconds())/1e6, 1)
	}
	elapsed := time.Since(start)
	fmt.Fprintf(b.out, "queried %d points via %d queries in %s.\n", found, b.cfg.Queries, elapsed)
	fmt.Fprintf(b.out, "P0.5: %.4fms, P0.9: %.4fms, P0.99: %.4fms\n", latency.Quantile(0.5), latency.Quantile(0.9), latency.Quantile(0.99))
}
