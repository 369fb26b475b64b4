package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Rrens/onboarding-agent/internal/api/response"
	"github.com/Rrens/onboarding-agent/internal/llm"
	"github.com/rs/zerolog/log"
)

const readyTimeout = 3 * time.Second

// Pinger is a backend the service cannot run without
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck reports that the process is up
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

// ReadyCheck pings every backend in parallel and reports each one's state.
// Any failure answers 503 with the same per-backend map.
func ReadyCheck(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		var (
			mu     sync.Mutex
			wg     sync.WaitGroup
			status = make(map[string]string, len(deps))
			ready  = true
		)
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				state := "ok"
				if err := dep.Ping(ctx); err != nil {
					log.Warn().Err(err).Str("backend", name).Msg("readiness check failed")
					state = "unavailable"
				}
				mu.Lock()
				status[name] = state
				if state != "ok" {
					ready = false
				}
				mu.Unlock()
			}()
		}
		wg.Wait()

		if !ready {
			response.Error(w, http.StatusServiceUnavailable, status)
			return
		}
		response.OK(w, map[string]any{"status": "ready", "backends": status})
	}
}

// ListLLMProviders describes the registered LLM providers
func ListLLMProviders(router *llm.Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]any{
			"providers": router.Catalog(),
			"preferred": router.Preferred(),
		})
	}
}
