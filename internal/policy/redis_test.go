package policy

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lending-workers/internal/models"
)

func setupMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisSource_PublishThenLoad(t *testing.T) {
	ctx := context.Background()
	_, client := setupMiniredis(t)

	fixture, err := LoadPolicies(ctx, NewCSVSource("testdata/lender-policies.csv"))
	require.NoError(t, err)

	src := NewRedisSource(client, "")
	require.NoError(t, src.Publish(ctx, fixture.Policies()))

	table, err := LoadPolicies(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, fixture.Policies(), table.Policies())
}

func TestRedisSource_PublishReplacesList(t *testing.T) {
	ctx := context.Background()
	mr, client := setupMiniredis(t)

	src := NewRedisSource(client, "policies:test")
	require.NoError(t, src.Publish(ctx, fixturePolicies("a", "b", "c")))
	require.NoError(t, src.Publish(ctx, fixturePolicies("d")))

	items, err := mr.List("policies:test")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRedisSource_MalformedElement(t *testing.T) {
	ctx := context.Background()
	mr, client := setupMiniredis(t)

	good := fixturePolicies("good")[0]
	line, err := encodeLine(good)
	require.NoError(t, err)
	mr.Push(DefaultRedisKey, line)
	mr.Push(DefaultRedisKey, "bad,Bad Bank,80")

	_, err = NewRedisSource(client, "").Load(ctx)

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "redis:"+DefaultRedisKey, loadErr.Source)
	assert.Equal(t, 2, loadErr.Line)
}

func TestRedisSource_EmptyListIsEmptyTable(t *testing.T) {
	_, client := setupMiniredis(t)

	_, err := LoadPolicies(context.Background(), NewRedisSource(client, ""))
	assert.ErrorIs(t, err, ErrEmptyTable)
}

func TestRedisSource_ReadError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectLRange(DefaultRedisKey, 0, -1).SetErr(errors.New("connection reset"))

	_, err := NewRedisSource(client, "").Load(context.Background())

	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Contains(t, err.Error(), "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func fixturePolicies(ids ...string) []models.LenderPolicy {
	out := make([]models.LenderPolicy, len(ids))
	for i, id := range ids {
		out[i] = validPolicy(id)
	}
	return out
}
