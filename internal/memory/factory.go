package memory

import (
	"context"

	"github.com/rs/zerolog"
)

// NewStore selects the backend: Postgres when a DATABASE_URL is configured,
// otherwise process-local memory.
func NewStore(ctx context.Context, databaseURL string, log zerolog.Logger) (Store, error) {
	if databaseURL == "" {
		log.Info().Msg("conversation store: in-memory")
		return NewInMemoryStore(), nil
	}
	s, err := NewPostgresStore(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("conversation store: postgres")
	return s, nil
}
