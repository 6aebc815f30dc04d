// Package book implements the Order-Book Client: a persistent websocket to
// the off-chain order-book venue, subscribing to l2Book updates per
// tracked symbol and maintaining the latest top-of-book in memory.
package book

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"hyperquote/pkg/types"
)

type subscribeRequest struct {
	Method       string       `json:"method"`
	Subscription subscription `json:"subscription"`
}

type subscription struct {
	Type string `json:"type"`
	Coin string `json:"coin"`
}

type l2BookResponse struct {
	Channel string    `json:"channel"`
	Data    l2BookData `json:"data"`
}

type l2BookData struct {
	Coin   string      `json:"coin"`
	Levels [][]level   `json:"levels"` // [bids, asks]
	Time   uint64      `json:"time"`
}

type level struct {
	Px string `json:"px"`
	Sz string `json:"sz"`
	N  uint32 `json:"n"`
}

// Client maintains a single websocket connection and a symbol-keyed
// top-of-book cache behind an RWMutex.
type Client struct {
	url     string
	symbols []string

	conn *websocket.Conn
	mu   sync.RWMutex
	levels map[string]types.OrderBookLevel
}

// New constructs a Client for the given websocket URL and tracked symbols.
// It does not dial; call Run to connect and start the read loop.
func New(url string, symbols []string) *Client {
	return &Client{
		url:     url,
		symbols: symbols,
		levels:  make(map[string]types.OrderBookLevel),
	}
}

// Run dials the websocket, sends one subscribe frame per tracked symbol,
// and reads frames until the connection closes, errors, or ctx is
// canceled. Reconnection is a supervisor concern, out of scope here.
func (c *Client) Run(ctx context.Context) error {
	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("book: dial %s: %w", c.url, err)
	}
	c.conn = conn
	defer conn.Close()

	log.Printf("book: connected to %s", c.url)

	for _, symbol := range c.symbols {
		req := subscribeRequest{
			Method: "subscribe",
			Subscription: subscription{Type: "l2Book", Coin: symbol},
		}
		if err := conn.WriteJSON(req); err != nil {
			return fmt.Errorf("book: subscribe %s: %w", symbol, err)
		}
		log.Printf("book: subscribed to %s orderbook", symbol)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.readLoop()
	}()

	select {
	case <-ctx.Done():
		return nil
	case <-done:
		return nil
	}
}

// readLoop dispatches inbound frames: text l2Book updates are applied to
// the level cache, pings get a matching pong, close/error breaks the loop,
// everything else is ignored.
func (c *Client) readLoop() {
	c.conn.SetPingHandler(func(data string) error {
		return c.conn.WriteMessage(websocket.PongMessage, []byte(data))
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Printf("book: websocket closed: %v", err)
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if err := c.handleMessage(data); err != nil {
			log.Printf("book: error handling message: %v", err)
		}
	}
}

func (c *Client) handleMessage(data []byte) error {
	var resp l2BookResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		// Not an l2Book frame (could be a subscription ack or another
		// channel); ignore rather than treat as fatal.
		return nil
	}
	if resp.Channel != "l2Book" {
		return nil
	}
	if len(resp.Data.Levels) < 2 {
		return nil
	}

	bids := resp.Data.Levels[0]
	asks := resp.Data.Levels[1]
	if len(bids) == 0 || len(asks) == 0 {
		// Empty side is "no update", never a fatal error.
		return nil
	}

	bestBid, err := strconv.ParseFloat(bids[0].Px, 64)
	if err != nil {
		return fmt.Errorf("book: parse bid px %q: %w", bids[0].Px, err)
	}
	bestAsk, err := strconv.ParseFloat(asks[0].Px, 64)
	if err != nil {
		return fmt.Errorf("book: parse ask px %q: %w", asks[0].Px, err)
	}
	mid := (bestBid + bestAsk) / 2.0

	lvl := types.OrderBookLevel{
		Symbol: resp.Data.Coin,
		Bid:    bestBid,
		Mid:    mid,
		Ask:    bestAsk,
		Time:   resp.Data.Time,
	}

	c.mu.Lock()
	c.levels[resp.Data.Coin] = lvl
	c.mu.Unlock()

	log.Printf("book: %s bid=%.2f mid=%.2f ask=%.2f", resp.Data.Coin, bestBid, mid, bestAsk)
	return nil
}

// Get returns the latest level for a symbol, if any has been observed.
func (c *Client) Get(symbol string) (types.OrderBookLevel, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	lvl, ok := c.levels[symbol]
	return lvl, ok
}

// All returns every symbol's latest level.
func (c *Client) All() []types.OrderBookLevel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.OrderBookLevel, 0, len(c.levels))
	for _, lvl := range c.levels {
		out = append(out, lvl)
	}
	return out
}
