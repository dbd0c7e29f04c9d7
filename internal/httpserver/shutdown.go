package httpserver

import (
	"context"
	"time"
)

// ShutdownTimeout bounds how long in-flight requests may run once a stop
// signal arrives. Uploads to the object store are the slowest requests the
// API serves, so this stays generous.
var ShutdownTimeout = 15 * time.Second

// StopGracefully shuts the server down with the package's shutdown budget.
func StopGracefully(s *Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}
