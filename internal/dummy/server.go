// Package dummy runs a local target server with endpoints of known latency
// profiles, useful for trying out test plans without a real API.
package dummy

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/rs/zerolog/log"
)

type ServerConfig struct {
	Port int
}

// Handler builds the dummy router. Split out so tests can mount it on an
// httptest server.
func Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(issueCSRFCookie)

	// Fast endpoint (10-50ms)
	r.Get("/fast", func(w http.ResponseWriter, req *http.Request) {
		sleep(10, 40)
		w.Write([]byte("Fast response"))
	})

	// Medium endpoint (100-300ms)
	r.Get("/medium", func(w http.ResponseWriter, req *http.Request) {
		sleep(100, 200)
		w.Write([]byte("Medium response"))
	})

	// Slow endpoint (1s-2s), good for exercising timeouts
	r.Get("/slow", func(w http.ResponseWriter, req *http.Request) {
		sleep(1000, 1000)
		w.Write([]byte("Slow response"))
	})

	// Usually fast, 5% chance of a 2s spike. P99 will be terrible while
	// P50 stays fine.
	r.Get("/spike", func(w http.ResponseWriter, req *http.Request) {
		if rand.Float32() < 0.05 {
			time.Sleep(2 * time.Second)
		} else {
			time.Sleep(20 * time.Millisecond)
		}
		w.Write([]byte("Spikey response"))
	})

	// Random failures: 20% 500s, 20% 429s
	r.Get("/error", func(w http.ResponseWriter, req *http.Request) {
		rnd := rand.Float32()
		switch {
		case rnd < 0.2:
			http.Error(w, "500 Internal Server Error", http.StatusInternalServerError)
		case rnd < 0.4:
			http.Error(w, "429 Too Many Requests", http.StatusTooManyRequests)
		default:
			w.Write([]byte("OK"))
		}
	})

	// Echoes the posted body back as JSON, rejecting mutating requests
	// that carry no CSRF header, like a session-authenticated API would.
	r.Post("/echo", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("X-CSRFToken") == "" {
			http.Error(w, "CSRF token missing", http.StatusForbidden)
			return
		}
		body, err := io.ReadAll(req.Body)
		if err != nil {
			http.Error(w, "read error", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"method": req.Method,
			"body":   string(body),
		})
	})

	return r
}

// issueCSRFCookie sets a csrftoken cookie on responses that lack one, the
// way session-based backends do on the first GET.
func issueCSRFCookie(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if _, err := req.Cookie("csrftoken"); err != nil {
			http.SetCookie(w, &http.Cookie{
				Name:  "csrftoken",
				Value: fmt.Sprintf("tok-%08x", rand.Uint32()),
				Path:  "/",
			})
		}
		next.ServeHTTP(w, req)
	})
}

func sleep(baseMs, jitterMs int) {
	time.Sleep(time.Duration(rand.Intn(jitterMs)+baseMs) * time.Millisecond)
}

// Start serves the dummy API in the background on the configured port.
func Start(cfg ServerConfig) {
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info().Str("addr", addr).Msg("dummy server listening")
	fmt.Printf("Dummy server running on http://localhost%s\n", addr)
	fmt.Println("   Endpoints: /fast, /medium, /slow, /spike, /error, POST /echo")

	server := &http.Server{
		Addr:    addr,
		Handler: Handler(),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("dummy server failed")
		}
	}()
}
