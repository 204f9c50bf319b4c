package policy

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lending-workers/internal/common/config"
)

func TestOpenSource_CSV(t *testing.T) {
	cfg := &config.Config{}
	cfg.Underwriting.Policy = config.PolicySourceConfig{Source: config.PolicySourceCSV, Path: "testdata/lender-policies.csv"}

	src, closer, err := OpenSource(context.Background(), cfg)
	require.NoError(t, err)
	defer closer.Close()

	table, err := LoadPolicies(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())
}

func TestOpenSource_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{}
	cfg.Database.Redis.Address = mr.Addr()
	cfg.Underwriting.Policy = config.PolicySourceConfig{Source: config.PolicySourceRedis, RedisKey: "policies"}

	src, closer, err := OpenSource(context.Background(), cfg)
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, "redis:policies", src.Name())

	rs, ok := src.(*RedisSource)
	require.True(t, ok)
	require.NoError(t, rs.Publish(context.Background(), fixturePolicies("alpha_bank", "beta_bank")))

	table, err := LoadPolicies(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}

func TestOpenSource_Unknown(t *testing.T) {
	cfg := &config.Config{}
	cfg.Underwriting.Policy.Source = "s3"

	_, _, err := OpenSource(context.Background(), cfg)
	assert.ErrorContains(t, err, `"s3"`)
}
