package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"tripplanner/database"
	"tripplanner/metrics"
)

// PriceWatchStore is the persistence the checker needs.
type PriceWatchStore interface {
	ListActivePriceWatches(ctx context.Context, limit int) ([]database.PriceWatch, error)
	RecordPriceCheck(ctx context.Context, id string, price decimal.Decimal, triggered bool) error
	TouchPriceWatch(ctx context.Context, id string) error
	ExpirePriceWatches(ctx context.Context, today string) (int64, error)
}

// FlightPricer finds the cheapest offer for a route.
type FlightPricer interface {
	CheapestFlight(ctx context.Context, q FlightQuery) (Flight, string, bool)
}

// PriceCheck is the outcome of checking one watch.
type PriceCheck struct {
	WatchID   string          `json:"watch_id"`
	Price     decimal.Decimal `json:"price"`
	Target    decimal.Decimal `json:"target"`
	Triggered bool            `json:"triggered"`
	Source    string          `json:"source"`
	Airline   string          `json:"airline,omitempty"`
}

// PriceWatchChecker periodically re-prices active watches.
type PriceWatchChecker struct {
	store     PriceWatchStore
	pricer    FlightPricer
	interval  time.Duration
	batchSize int
	metrics   *metrics.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewPriceWatchChecker(store PriceWatchStore, pricer FlightPricer, interval time.Duration, batchSize int, m *metrics.Metrics, logger *zap.Logger) *PriceWatchChecker {
	return &PriceWatchChecker{
		store:     store,
		pricer:    pricer,
		interval:  interval,
		batchSize: batchSize,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
	}
}

// Check prices one watch and records the result. A price at or below target
// triggers the watch and deactivates it. Every attempt stamps the watch as checked,
// so the batch rotates even when only estimates are available.
func (c *PriceWatchChecker) Check(ctx context.Context, w database.PriceWatch) (*PriceCheck, error) {
	flight, source, ok := c.pricer.CheapestFlight(ctx, FlightQuery{
		Origin:        w.Origin,
		Destination:   w.Destination,
		DepartureDate: w.DepartureDate,
		ReturnDate:    w.ReturnDate,
		Adults:        1,
		Currency:      w.Currency,
	})
	if !ok {
		if err := c.store.TouchPriceWatch(ctx, w.ID); err != nil {
			return nil, err
		}
		return nil, errNoResults
	}

	price := decimal.NewFromFloat(flight.Price).Round(2)
	if source == SourceFallback {
		// estimates never trigger or overwrite the last real price
		if err := c.store.TouchPriceWatch(ctx, w.ID); err != nil {
			return nil, err
		}
		return &PriceCheck{WatchID: w.ID, Price: price, Target: w.TargetPrice, Source: source, Airline: flight.Airline}, nil
	}
	triggered := price.LessThanOrEqual(w.TargetPrice)
	if err := c.store.RecordPriceCheck(ctx, w.ID, price, triggered); err != nil {
		return nil, err
	}

	if triggered {
		if c.metrics != nil {
			c.metrics.PriceWatchHits.Inc()
		}
		c.logger.Info("price watch triggered",
			zap.String("watch_id", w.ID),
			zap.String("user_id", w.UserID),
			zap.String("price", price.String()),
			zap.String("target", w.TargetPrice.String()),
		)
	}

	return &PriceCheck{
		WatchID:   w.ID,
		Price:     price,
		Target:    w.TargetPrice,
		Triggered: triggered,
		Source:    source,
		Airline:   flight.Airline,
	}, nil
}

// CheckOnce deactivates watches whose departure has passed, then prices one batch
// of the remaining active watches and returns how many triggered.
func (c *PriceWatchChecker) CheckOnce(ctx context.Context) (int, error) {
	today := c.now().UTC().Format(time.DateOnly)
	expired, err := c.store.ExpirePriceWatches(ctx, today)
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		c.logger.Info("expired departed price watches", zap.Int64("count", expired), zap.String("before", today))
	}

	watches, err := c.store.ListActivePriceWatches(ctx, c.batchSize)
	if err != nil {
		return 0, err
	}

	triggered := 0
	for _, w := range watches {
		if ctx.Err() != nil {
			return triggered, ctx.Err()
		}
		res, err := c.Check(ctx, w)
		if err != nil {
			c.logger.Warn("price watch check failed", zap.String("watch_id", w.ID), zap.Error(err))
			continue
		}
		if res.Triggered {
			triggered++
		}
	}
	return triggered, nil
}

// Run checks watches every interval until ctx is done.
func (c *PriceWatchChecker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("price watch checker started", zap.Duration("interval", c.interval))
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("price watch checker stopped")
			return
		case <-ticker.C:
			n, err := c.CheckOnce(ctx)
			if err != nil && ctx.Err() == nil {
				c.logger.Error("price watch run failed", zap.Error(err))
				continue
			}
			c.logger.Debug("price watch run finished", zap.Int("triggered", n))
		}
	}
}
