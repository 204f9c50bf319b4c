package policy

import (
	"context"
	"fmt"
	"io"

	"lending-workers/internal/common/config"
	"lending-workers/internal/common/database"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// OpenSource builds the source named by the underwriting.policy section. The
// returned closer releases any database connection the source holds.
func OpenSource(ctx context.Context, cfg *config.Config) (Source, io.Closer, error) {
	pc := cfg.Underwriting.Policy
	switch pc.Source {
	case config.PolicySourceCSV:
		return NewCSVSource(pc.Path), nopCloser{}, nil

	case config.PolicySourcePostgres:
		pg, err := database.NewPostgres(ctx, cfg.Database.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresSource(pg, pc.Table), pg, nil

	case config.PolicySourceRedis:
		rc, err := database.NewRedis(ctx, cfg.Database.Redis)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisSource(rc.Client, pc.RedisKey), rc, nil
	}
	return nil, nil, fmt.Errorf("unknown policy source %q", pc.Source)
}
