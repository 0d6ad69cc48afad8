package httpkit

import (
	"net/http"
	"time"

	"storepulse/internal/platform/config"
	"storepulse/internal/platform/net/middleware"
)

// CommonStack returns the per api middleware slice, read from CORE_API_ style keys
// CORS_ORIGINS is a comma list, SLOW_REQUEST marks slow requests in the access log
func CommonStack(cfg config.Conf) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		middleware.AccessLogZerolog(middleware.AccessLogOptions{
			Slow: cfg.MayDuration("SLOW_REQUEST", 2*time.Second),
		}),
		middleware.CORS(middleware.CORSOptions{
			AllowedOrigins: cfg.MayCSV("CORS_ORIGINS", nil),
			MaxAge:         300,
		}),
	}
}
