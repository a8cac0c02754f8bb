package httpapi

import (
	"net/http"

	"gstdirectory/pkg/directory"

	"go.uber.org/zap"
)

// NewRouter returns the full middleware-wrapped handler tree.
func NewRouter(dir *directory.Directory, events http.Handler, allowedOrigins []string, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	NewHandler(dir, events, logger).Register(mux)

	return Chain(mux,
		WithRequestID(),
		WithLogging(logger),
		WithRecover(logger),
		WithCORS(allowedOrigins),
	)
}
