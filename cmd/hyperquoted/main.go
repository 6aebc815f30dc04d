package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"hyperquote/pkg/book"
	"hyperquote/pkg/chain"
	"hyperquote/pkg/config"
	"hyperquote/pkg/discover"
	"hyperquote/pkg/gasmon"
	"hyperquote/pkg/registry"
	"hyperquote/pkg/snapshot"
	"hyperquote/pkg/types"
)

var (
	port      = flag.Int("port", 8090, "HTTP server port")
	rateLimit = flag.Int("ratelimit", 20, "RPC requests per second per endpoint")
)

var (
	mu           sync.RWMutex
	latest       types.PriceSnapshot
	haveSnapshot bool
	startTime    time.Time
)

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	flag.Parse()
	startTime = time.Now()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := chain.NewPool(ctx, []string{cfg.ChainWSRPC}, *rateLimit)
	if err != nil {
		log.Fatalf("chain: %v", err)
	}
	defer pool.Close()

	reg := registry.New()
	bookClient := book.New(cfg.OrderBookWSURL, cfg.TrackedSymbols())
	gasMonitor := gasmon.New(pool.Primary())

	// Bootstrap order mirrors the reference pricing engine: discover
	// pools once, then bring up the order-book feed, gas monitor, and
	// swap event listener as long-running tasks.
	discoverer := discover.New(pool, cfg, reg)
	if err := discoverer.Run(ctx); err != nil {
		log.Fatalf("discover: %v", err)
	}
	log.Printf("hyperquoted: %d pools registered", reg.Size())

	listener := discover.NewListener(pool.Primary(), reg)
	snapshots := make(chan types.PriceSnapshot, 1)
	assembler := snapshot.New(pool.Primary(), cfg, reg, bookClient, gasMonitor, snapshots)

	var wg sync.WaitGroup
	runTask := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				log.Printf("hyperquoted: %s stopped: %v", name, err)
			}
		}()
	}

	runTask("orderbook", bookClient.Run)
	runTask("gasmon", gasMonitor.Run)
	runTask("listener", listener.Run)
	runTask("snapshot", assembler.Run)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case snap := <-snapshots:
				mu.Lock()
				latest = snap
				haveSnapshot = true
				mu.Unlock()
				log.Printf("hyperquoted: snapshot with %d pool quotes, %d order-book levels",
					len(snap.DEXPrices), len(snap.OrderBookLevels))
			}
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", handleHealth)
	mux.HandleFunc("/snapshot", handleSnapshot)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: mux,
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("hyperquoted: shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("hyperquoted: server shutdown error: %v", err)
		}
		cancel()
	}()

	log.Printf("hyperquoted: listening on http://localhost:%d", *port)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("hyperquoted: server error: %v", err)
	}

	wg.Wait()
	log.Println("hyperquoted: stopped cleanly")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	mu.RLock()
	defer mu.RUnlock()
	resp := map[string]interface{}{
		"status": "healthy",
		"uptime": time.Since(startTime).Round(time.Second).String(),
		"pools":  len(latest.DEXPrices),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func handleSnapshot(w http.ResponseWriter, r *http.Request) {
	mu.RLock()
	defer mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	if !haveSnapshot {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"error": "no snapshot assembled yet"})
		return
	}
	json.NewEncoder(w).Encode(latest)
}
