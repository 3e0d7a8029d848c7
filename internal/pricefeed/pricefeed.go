package pricefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/core-coin/custos/internal/config"
	"github.com/core-coin/custos/internal/models"
	"github.com/core-coin/custos/pkg/logger"
)

// TickerResponse is the body of the Bitfinex v1 pubticker endpoint.
// Prices are sent as decimal strings.
type TickerResponse struct {
	Mid       string `json:"mid"`
	Bid       string `json:"bid"`
	Ask       string `json:"ask"`
	LastPrice string `json:"last_price"`
	Low       string `json:"low"`
	High      string `json:"high"`
	Volume    string `json:"volume"`
	Timestamp string `json:"timestamp"`
}

// PriceFeed fetches the last traded price per MIOTA in USD and caches it.
type PriceFeed struct {
	logger   *logger.Logger
	url      string
	interval time.Duration
	client   *http.Client

	// In-memory cache
	price      float64
	fetchedAt  time.Time
	cacheMutex sync.RWMutex

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPriceFeed creates a new PriceFeed instance
func NewPriceFeed(logger *logger.Logger, config *config.Config) *PriceFeed {
	interval := config.PriceRefreshInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PriceFeed{
		logger:   logger,
		url:      config.PriceTickerURL,
		interval: interval,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// LastPrice returns the cached price while it is younger than the refresh
// interval and fetches a new one otherwise.
func (p *PriceFeed) LastPrice(ctx context.Context) (float64, error) {
	p.cacheMutex.RLock()
	price, fetchedAt := p.price, p.fetchedAt
	p.cacheMutex.RUnlock()

	if !fetchedAt.IsZero() && time.Since(fetchedAt) < p.interval {
		return price, nil
	}
	return p.FetchAndUpdatePrice(ctx)
}

// FetchAndUpdatePrice fetches the ticker and updates the cache.
func (p *PriceFeed) FetchAndUpdatePrice(ctx context.Context) (float64, error) {
	price, err := p.fetchTicker(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch price: %w: %w", models.ErrNetwork, err)
	}

	p.cacheMutex.Lock()
	p.price = price
	p.fetchedAt = time.Now()
	p.cacheMutex.Unlock()

	p.logger.Debugw("price updated", "last_price", price)
	return price, nil
}

func (p *PriceFeed) fetchTicker(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch ticker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return 0, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var ticker TickerResponse
	if err := json.NewDecoder(resp.Body).Decode(&ticker); err != nil {
		return 0, fmt.Errorf("failed to decode ticker: %w", err)
	}
	price, err := strconv.ParseFloat(ticker.LastPrice, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse last_price %q: %w", ticker.LastPrice, err)
	}
	return price, nil
}

// StartPeriodicUpdate starts a goroutine that keeps the cached price fresh
func (p *PriceFeed) StartPeriodicUpdate() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		if _, err := p.FetchAndUpdatePrice(p.ctx); err != nil {
			p.logger.Warnw("Failed to fetch price on startup", "error", err)
		}

		for {
			select {
			case <-ticker.C:
				if _, err := p.FetchAndUpdatePrice(p.ctx); err != nil {
					p.logger.Warnw("Failed to fetch price during periodic update", "error", err)
				}
			case <-p.ctx.Done():
				p.logger.Info("Price feed periodic update stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the PriceFeed
func (p *PriceFeed) Stop() {
	p.cancel()
	p.wg.Wait()
}
