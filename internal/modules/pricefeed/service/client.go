package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Sink receives every parsed mark.
type Sink interface {
	UpdatePrice(symbol string, price decimal.Decimal)
}

// Observer is told about connection state and tick arrival.
type Observer interface {
	SetFeedConnected(v bool)
	TouchTick(t time.Time)
}

type Config struct {
	URL            string
	Symbols        []string
	ReconnectDelay time.Duration
	StripQuote     string
}

// Client streams mini-ticker marks over one websocket and reconnects on failure.
type Client struct {
	cfg      Config
	wsDialer *websocket.Dialer
	sink     Sink
	obs      Observer
	onTick   func(symbol string)
	log      *zap.Logger

	mu   sync.Mutex
	last map[string]decimal.Decimal
}

func NewClient(cfg Config, sink Sink, obs Observer, onTick func(symbol string), log *zap.Logger) *Client {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 3 * time.Second
	}
	return &Client{
		cfg:      cfg,
		wsDialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		sink:     sink,
		obs:      obs,
		onTick:   onTick,
		log:      log.Named("pricefeed"),
		last:     make(map[string]decimal.Decimal),
	}
}

// StreamURL builds the combined-stream url for the configured symbols.
func (c *Client) StreamURL() string {
	if len(c.cfg.Symbols) == 0 {
		return c.cfg.URL
	}
	streams := make([]string, 0, len(c.cfg.Symbols))
	for _, s := range c.cfg.Symbols {
		streams = append(streams, strings.ToLower(s)+"@miniTicker")
	}
	sep := "?"
	if strings.Contains(c.cfg.URL, "?") {
		sep = "&"
	}
	return c.cfg.URL + sep + "streams=" + strings.Join(streams, "/")
}

// Start runs until ctx is done, reconnecting after every read error.
func (c *Client) Start(ctx context.Context) {
	url := c.StreamURL()
	for {
		err := c.session(ctx, url)
		c.setConnected(false)
		if ctx.Err() != nil {
			return
		}
		c.log.Warn("feed disconnected", zap.Error(err), zap.Duration("retry_in", c.cfg.ReconnectDelay))

		select {
		case <-ctx.Done():
			return
		case <-time.After(c.cfg.ReconnectDelay):
		}
	}
}

func (c *Client) session(ctx context.Context, url string) error {
	conn, _, err := c.wsDialer.DialContext(ctx, url, nil)
	if err != nil {
		return errors.Wrap(err, "dial")
	}
	defer conn.Close()

	// unblock ReadMessage on shutdown
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	c.setConnected(true)
	c.log.Info("feed connected", zap.Int("symbols", len(c.cfg.Symbols)))

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return errors.Wrap(err, "read")
		}
		symbol, price, ok := ParseMiniTicker(msg)
		if !ok {
			continue
		}
		c.dispatch(c.normalize(symbol), price)
	}
}

func (c *Client) dispatch(symbol string, price decimal.Decimal) {
	if c.obs != nil {
		c.obs.TouchTick(time.Now())
	}
	if c.onTick != nil {
		c.onTick(symbol)
	}

	c.mu.Lock()
	c.last[symbol] = price
	c.mu.Unlock()
	// an unchanged mark is still forwarded: a position opened past its stop closes on it
	c.sink.UpdatePrice(symbol, price)
}

// Last returns the latest mark seen for symbol.
func (c *Client) Last(symbol string) (decimal.Decimal, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.last[symbol]
	return p, ok
}

func (c *Client) normalize(symbol string) string {
	symbol = strings.ToUpper(symbol)
	if q := strings.ToUpper(c.cfg.StripQuote); q != "" && strings.HasSuffix(symbol, q) && len(symbol) > len(q) {
		return strings.TrimSuffix(symbol, q)
	}
	return symbol
}

func (c *Client) setConnected(v bool) {
	if c.obs != nil {
		c.obs.SetFeedConnected(v)
	}
}
