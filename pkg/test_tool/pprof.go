package testtool

import (
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof handlers on DefaultServeMux

	"gig_chat_service/pkg/config"
	"gig_chat_service/pkg/logger"

	"go.uber.org/zap"
)

// StartPprof serve pprof on addr when enabled, never in production
func StartPprof(enabled bool, addr string) {
	if !enabled || config.IsProduction() {
		logger.Log.Info("pprof is disabled")
		return
	}
	if addr == "" {
		addr = "127.0.0.1:6060"
	}

	go func() {
		logger.Log.Info("starting pprof server", zap.String("addr", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			logger.Log.Errorf("pprof server failed:", err)
		}
	}()
}
