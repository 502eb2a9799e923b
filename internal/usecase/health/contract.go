package health

import "context"

// Pinger answers a cheap liveness probe. Both the SQLite and Redis stores implement it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker probes the embedding provider without spending tokens.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
