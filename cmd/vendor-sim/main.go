// vendor-sim is a standalone simulated delivery vendor. It accepts send
// requests and posts delivery receipts back to the engine's receipt
// endpoint, exercising the same asynchronous callback path a real vendor
// would use.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/xenolabs/engage/internal/pkg/httputil"
	"github.com/xenolabs/engage/internal/vendor"
)

func main() {
	addr := flag.String("addr", ":3000", "listen address")
	receiptURL := flag.String("receipt-url", "http://localhost:8080/api/campaigns/delivery-receipt", "engine delivery-receipt endpoint")
	successRate := flag.Float64("success-rate", 0.9, "fraction of sends that succeed")
	maxLatency := flag.Duration("max-latency", time.Second, "upper bound on simulated per-message latency")
	flag.Parse()

	poster := vendor.NewReceiptPoster(*receiptURL, 30*time.Second)
	sim := vendor.NewSimulated(*successRate, *maxLatency, poster)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		httputil.OK(w, map[string]string{"status": "ok"})
	})

	r.Post("/send", func(w http.ResponseWriter, req *http.Request) {
		var msg vendor.Message
		if !httputil.Decode(w, req, &msg) {
			return
		}
		if msg.LogID == "" {
			httputil.BadRequest(w, "logId is required")
			return
		}

		// Receipts go back asynchronously, like a real vendor: accept
		// now, report the outcome later. The request context dies with
		// the response, so the send runs on its own context.
		go func() {
			if err := sim.Send(context.Background(), msg); err != nil {
				log.Printf("[vendor-sim] delivery failed for log %s: %v", msg.LogID, err)
			}
		}()

		httputil.OK(w, map[string]string{"status": "accepted"})
	})

	log.Printf("[vendor-sim] listening on %s (success_rate=%.2f receipt_url=%s)", *addr, *successRate, *receiptURL)
	if err := http.ListenAndServe(*addr, r); err != nil {
		log.Fatalf("vendor-sim: %v", err)
	}
}
