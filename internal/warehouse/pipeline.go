package warehouse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"agrimart/internal/staging"
)

// Pipeline sequences a full staging-to-warehouse run: date dimension first,
// the five entity dimensions concurrently, then the fact tables in
// dependency order behind the dimension barrier. Each table load is one
// transaction; the pipeline is resumable per table, not globally atomic.
type Pipeline struct {
	store    *Store
	reader   *staging.Reader
	resolver *KeyResolver
	ledger   *Ledger
	log      Logger
	metrics  MetricsRecorder
	now      func() time.Time
	sink     ReportSink
}

// New builds a pipeline over an open warehouse store.
func New(store *Store, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:   store,
		reader:  staging.NewReader(store.Dialect()),
		log:     noopLogger{},
		metrics: noopMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.resolver = NewKeyResolver(store)
	p.ledger = NewLedger(store, p.log, p.now)
	return p
}

// Resolver exposes the pipeline's key resolver.
func (p *Pipeline) Resolver() *KeyResolver { return p.resolver }

// Ledger exposes the pipeline's execution ledger.
func (p *Pipeline) Ledger() *Ledger { return p.ledger }

// Run executes one full load. It returns the run report in every outcome
// that produced a ledger entry; the error reflects the first failing table
// load, which also finalizes the ledger entry as Failed.
func (p *Pipeline) Run(ctx context.Context, jobName string) (*RunReport, error) {
	started := p.now().UTC()
	runDate := started

	runID, err := p.ledger.Start(ctx, jobName)
	if err != nil {
		return nil, err
	}

	rep := &RunReport{RunID: runID, JobName: jobName, StartedAt: started}
	var mu sync.Mutex

	fail := func(cause error) (*RunReport, error) {
		mu.Lock()
		rep.Status = StatusFailed
		rep.Error = cause.Error()
		rep.FinishedAt = p.now().UTC()
		rep.Totals = tableTotals(rep.Tables)
		mu.Unlock()
		p.metrics.ObserveRun(StatusFailed, rep.FinishedAt.Sub(started))
		// Finalize with a background-derived context so cancellation of the
		// run itself cannot orphan the ledger entry.
		finCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()
		if ferr := p.ledger.Finish(finCtx, runID, StatusFailed, rep.Totals, cause.Error()); ferr != nil {
			p.log.Error("finalize failed run", "run_id", runID, "error", ferr)
		}
		p.archive(finCtx, rep)
		return rep, cause
	}

	// Date dimension has no dependencies and seeds every date_key join.
	if err := p.runStep(ctx, rep, &mu, "dim_date", func(ctx context.Context, q Querier) (Counts, error) {
		return p.LoadDateDimension(ctx, q)
	}); err != nil {
		return fail(err)
	}

	// Entity dimensions have no inter-dependencies; load them concurrently.
	// Facts must not start until every dimension load has committed.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return p.runStep(gctx, rep, &mu, "dim_farmer", func(ctx context.Context, q Querier) (Counts, error) {
			farmers, err := p.reader.Farmers(ctx, q)
			if err != nil {
				return Counts{}, err
			}
			return p.LoadFarmerDimension(ctx, q, farmers, runDate)
		})
	})
	g.Go(func() error {
		return p.runStep(gctx, rep, &mu, "dim_product", func(ctx context.Context, q Querier) (Counts, error) {
			products, err := p.reader.Products(ctx, q)
			if err != nil {
				return Counts{}, err
			}
			return p.LoadProductDimension(ctx, q, products, runDate)
		})
	})
	g.Go(func() error {
		return p.runStep(gctx, rep, &mu, "dim_market", func(ctx context.Context, q Querier) (Counts, error) {
			markets, err := p.reader.Markets(ctx, q)
			if err != nil {
				return Counts{}, err
			}
			return p.LoadMarketDimension(ctx, q, markets, runDate)
		})
	})
	g.Go(func() error {
		return p.runStep(gctx, rep, &mu, "dim_buyer", func(ctx context.Context, q Querier) (Counts, error) {
			buyers, err := p.reader.Buyers(ctx, q)
			if err != nil {
				return Counts{}, err
			}
			return p.LoadBuyerDimension(ctx, q, buyers, runDate)
		})
	})
	g.Go(func() error {
		return p.runStep(gctx, rep, &mu, "dim_location", func(ctx context.Context, q Querier) (Counts, error) {
			farmers, err := p.reader.Farmers(ctx, q)
			if err != nil {
				return Counts{}, err
			}
			return p.LoadLocationDimension(ctx, q, farmers, runDate)
		})
	})
	if err := g.Wait(); err != nil {
		return fail(err)
	}

	factSteps := []struct {
		name string
		fn   func(ctx context.Context, q Querier) (Counts, error)
	}{
		{"fact_transaction", func(ctx context.Context, q Querier) (Counts, error) {
			rows, err := p.reader.Transactions(ctx, q)
			if err != nil {
				return Counts{}, err
			}
			return p.LoadTransactionFacts(ctx, q, rows)
		}},
		{"fact_harvest", func(ctx context.Context, q Querier) (Counts, error) {
			rows, err := p.reader.Harvests(ctx, q)
			if err != nil {
				return Counts{}, err
			}
			return p.LoadHarvestFacts(ctx, q, rows)
		}},
		{"fact_pricing", func(ctx context.Context, q Querier) (Counts, error) {
			rows, err := p.reader.Pricings(ctx, q)
			if err != nil {
				return Counts{}, err
			}
			return p.LoadPricingFacts(ctx, q, rows)
		}},
		{"fact_weather", func(ctx context.Context, q Querier) (Counts, error) {
			rows, err := p.reader.WeatherReadings(ctx, q)
			if err != nil {
				return Counts{}, err
			}
			return p.LoadWeatherFacts(ctx, q, rows)
		}},
		{"fact_subsidy", func(ctx context.Context, q Querier) (Counts, error) {
			rows, err := p.reader.Subsidies(ctx, q)
			if err != nil {
				return Counts{}, err
			}
			return p.LoadSubsidyFacts(ctx, q, rows)
		}},
	}
	for _, step := range factSteps {
		if err := p.runStep(ctx, rep, &mu, step.name, step.fn); err != nil {
			return fail(err)
		}
	}

	rep.Status = StatusSuccess
	rep.FinishedAt = p.now().UTC()
	rep.Totals = tableTotals(rep.Tables)
	p.metrics.ObserveRun(StatusSuccess, rep.FinishedAt.Sub(started))
	// The report archives whether or not the ledger finalize lands; a run
	// that loaded everything must not lose its artifact.
	finErr := p.ledger.Finish(ctx, runID, StatusSuccess, rep.Totals, "")
	if finErr != nil {
		p.log.Error("finalize successful run", "run_id", runID, "error", finErr)
	}
	p.archive(ctx, rep)
	return rep, finErr
}

// runStep executes one table load inside its own transaction: commit on full
// success, rollback on any error. Results are appended to the report under
// the mutex because dimension steps run concurrently.
func (p *Pipeline) runStep(ctx context.Context, rep *RunReport, mu *sync.Mutex, table string, fn func(ctx context.Context, q Querier) (Counts, error)) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", table, err)
	}
	start := time.Now()

	tx, err := p.store.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", table, err)
	}
	counts, err := fn(ctx, tx)
	if err != nil {
		_ = tx.Rollback()
		p.metrics.ObserveTableLoad(table, counts, time.Since(start), err)
		p.log.Error("table load failed", "table", table, "error", err)
		return fmt.Errorf("%s: %w", table, err)
	}
	if err := tx.Commit(); err != nil {
		p.metrics.ObserveTableLoad(table, counts, time.Since(start), err)
		return fmt.Errorf("%s: commit: %w", table, err)
	}

	elapsed := time.Since(start)
	p.metrics.ObserveTableLoad(table, counts, elapsed, nil)
	p.log.Info("table loaded", "table", table,
		"read", counts.Read, "inserted", counts.Inserted, "updated", counts.Updated, "skipped", counts.Skipped)

	mu.Lock()
	rep.Tables = append(rep.Tables, TableResult{Table: table, Rows: counts, DurationMS: float64(elapsed.Microseconds()) / 1000})
	mu.Unlock()
	return nil
}

func (p *Pipeline) archive(ctx context.Context, rep *RunReport) {
	if p.sink == nil {
		return
	}
	if err := p.sink.Archive(ctx, rep); err != nil {
		p.log.Warn("archive run report", "run_id", rep.RunID, "error", err)
	}
}

func tableTotals(tables []TableResult) Counts {
	var total Counts
	for _, t := range tables {
		total.Add(t.Rows)
	}
	return total
}
