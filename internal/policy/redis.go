package policy

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"lending-workers/internal/models"
)

const DefaultRedisKey = "lending:lender-policies"

// RedisSource reads policies from a Redis list. Each element is one CSV
// record in Columns order; list order is table order.
type RedisSource struct {
	Client redis.Cmdable
	Key    string
}

func NewRedisSource(client redis.Cmdable, key string) *RedisSource {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisSource{Client: client, Key: key}
}

func (s *RedisSource) Name() string {
	return "redis:" + s.Key
}

func (s *RedisSource) Load(ctx context.Context) ([]models.LenderPolicy, error) {
	items, err := s.Client.LRange(ctx, s.Key, 0, -1).Result()
	if err != nil {
		return nil, &LoadError{Source: s.Name(), Err: fmt.Errorf("read policy list: %w", err)}
	}

	policies := make([]models.LenderPolicy, 0, len(items))
	for i, item := range items {
		reader := csv.NewReader(strings.NewReader(item))
		record, err := reader.Read()
		if err != nil {
			return nil, &LoadError{Source: s.Name(), Line: i + 1, Err: err}
		}

		p, err := ParseRecord(record)
		if err != nil {
			return nil, &LoadError{Source: s.Name(), Line: i + 1, Lender: p.ID, Err: err}
		}
		policies = append(policies, p)
	}
	return policies, nil
}

// Publish replaces the list at Key with policies, for seeding and tests.
func (s *RedisSource) Publish(ctx context.Context, policies []models.LenderPolicy) error {
	values := make([]interface{}, 0, len(policies))
	for _, p := range policies {
		line, err := encodeLine(p)
		if err != nil {
			return err
		}
		values = append(values, line)
	}

	_, err := s.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.Key)
		if len(values) > 0 {
			pipe.RPush(ctx, s.Key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish policies: %w", err)
	}
	return nil
}

func encodeLine(p models.LenderPolicy) (string, error) {
	var b strings.Builder
	w := csv.NewWriter(&b)
	if err := w.Write(FormatRecord(p)); err != nil {
		return "", fmt.Errorf("encode policy %s: %w", p.ID, err)
	}
	w.Flush()
	return strings.TrimRight(b.String(), "\n"), nil
}
