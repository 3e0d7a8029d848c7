package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/core-coin/custos/internal/config"
	"github.com/core-coin/custos/internal/models"
	"github.com/core-coin/custos/pkg/logger"
)

func newTicker(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newFeed(url string, interval time.Duration) *PriceFeed {
	return NewPriceFeed(logger.NewNop(), &config.Config{PriceTickerURL: url, PriceRefreshInterval: interval})
}

func TestLastPrice_Cached(t *testing.T) {
	srv, hits := newTicker(t, http.StatusOK, `{"mid":"0.2","bid":"0.19","ask":"0.21","last_price":"0.2345","timestamp":"1517000000.1"}`)
	feed := newFeed(srv.URL, time.Hour)

	price, err := feed.LastPrice(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.2345, price, 1e-9)

	_, err = feed.LastPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load(), "second call is served from cache")
}

func TestLastPrice_Expired(t *testing.T) {
	srv, hits := newTicker(t, http.StatusOK, `{"last_price":"1.5"}`)
	feed := newFeed(srv.URL, time.Nanosecond)

	for i := 0; i < 3; i++ {
		_, err := feed.LastPrice(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), hits.Load())
}

func TestLastPrice_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"bad json", http.StatusOK, "{"},
		{"bad price", http.StatusOK, `{"last_price":"n/a"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTicker(t, tt.status, tt.body)
			_, err := newFeed(srv.URL, time.Hour).LastPrice(context.Background())
			require.ErrorIs(t, err, models.ErrNetwork)
		})
	}
}

func TestPeriodicUpdate(t *testing.T) {
	srv, hits := newTicker(t, http.StatusOK, `{"last_price":"0.5"}`)
	feed := newFeed(srv.URL, 10*time.Millisecond)

	feed.StartPeriodicUpdate()
	require.Eventually(t, func() bool { return hits.Load() >= 2 }, time.Second, 5*time.Millisecond)
	feed.Stop()

	feed.cacheMutex.RLock()
	defer feed.cacheMutex.RUnlock()
	assert.InDelta(t, 0.5, feed.price, 1e-9)
}
