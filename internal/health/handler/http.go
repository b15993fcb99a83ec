// Package handler exposes liveness and readiness probes.
package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
)

const probeTimeout = 2 * time.Second

// Checker reports process health. Liveness always succeeds once the process
// is serving; readiness additionally pings the user store and session store.
type Checker struct {
	db    *sql.DB
	redis *redis.Client
}

// NewChecker returns a Checker. Either dependency may be nil, in which case it
// is skipped during readiness.
func NewChecker(db *sql.DB, redisClient *redis.Client) *Checker {
	return &Checker{db: db, redis: redisClient}
}

// Register installs the probe routes.
func (c *Checker) Register(r *httprouter.Router) {
	r.GET("/healthz", c.Live)
	r.GET("/readyz", c.Ready)
}

// Live reports that the process is up.
func (c *Checker) Live(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	writeStatus(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready pings the backing stores. A failing dependency yields 503 with the
// failing component named, so an orchestrator can stop routing traffic here.
func (c *Checker) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	if c.db != nil {
		if err := c.db.PingContext(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "component": "database"})
			return
		}
	}
	if c.redis != nil {
		if err := c.redis.Ping(ctx).Err(); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "component": "redis"})
			return
		}
	}
	writeStatus(w, http.StatusOK, map[string]string{"status": "ready"})
}

func writeStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
