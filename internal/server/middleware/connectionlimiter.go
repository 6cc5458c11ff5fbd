package middleware

import (
	"log/slog"
	"net/http"

	"github.com/Himanshu5634/whiteboard-backend/pkg/config"
)

type IPConnectionCounter func(ipAddr string) int
type IPConnectionCycler func(ipAddr string)

// NewConnectionLimiter bounds the number of live connections per client IP.
// "reject" mode turns away the new connection; "cycle" mode closes the
// oldest connection from the same IP and lets the new one through.
func NewConnectionLimiter(
	logger *slog.Logger,
	counter IPConnectionCounter,
	cycler IPConnectionCycler,
	cfg config.ConnectionLimitConfig,
) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.MaxPerIP <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			reqMeta, ok := ReqMetadataFrom(r.Context())
			if !ok {
				logger.Error("Connection limiter could not find request metadata in context. Check middleware order.")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			if counter(reqMeta.IP) < cfg.MaxPerIP {
				next.ServeHTTP(w, r)
				return
			}

			logger.Warn("IP connection limit reached", slog.String("ip", reqMeta.IP), slog.Int("max", cfg.MaxPerIP))
			switch cfg.Mode {
			case "reject":
				http.Error(w, "Too Many Active Connections", http.StatusTooManyRequests)
			case "cycle":
				cycler(reqMeta.IP)
				next.ServeHTTP(w, r)
			default:
				logger.Error("Invalid connection limit mode configured", slog.String("mode", cfg.Mode))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		})
	}
}
