package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/chantabs/internal/events"
	"github.com/MrSnakeDoc/chantabs/internal/logger"
	"github.com/MrSnakeDoc/chantabs/internal/metrics"
	"github.com/MrSnakeDoc/chantabs/internal/session"
)

// Pinger reports whether the state store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger            logger.Logger
	StartTime         time.Time
	Version           string
	Commit            string
	BuildDate         string
	GoVersion         string
	TimeNow           func() time.Time  // for testing, defaults to time.Now
	AllowedHosts      []string          // Host headers allowed to access the server
	AllowedCIDRS      []string          // IPs allowed to access readyz and reload endpoints
	TrustProxy        bool              // true if running behind a trusted reverse proxy (e.g., cloudflared)
	RateLimit         float64           // requests per second per client IP, 0 = unlimited
	RateBurst         int               // bucket size of the rate limiter
	Registry          *session.Registry // per-user tab and bookmark sessions
	Hub               *events.Hub       // live event streams
	Store             Pinger            // state store, pinged by readyz
	Metrics           *metrics.Metrics  // nil disables /metrics and request metrics
	SeedReloadTrigger chan struct{}     // Channel to trigger manual seed reload (nil if no seed file)
	Heartbeat         time.Duration     // keep-alive interval of event streams
}
