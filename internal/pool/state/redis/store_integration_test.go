//go:build integration

package redis_test

import (
	"context"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/suite"

	redisstore "donationpool/internal/pool/state/redis"
	"donationpool/internal/pool/state/statetest"
	"donationpool/pkg/testutil/containers"
)

type RedisStoreSuite struct {
	statetest.StoreSuite
	redis *containers.RedisContainer
}

func TestRedisStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisStoreSuite))
}

func (s *RedisStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
}

func (s *RedisStoreSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
	s.Store = redisstore.New(s.redis.Client)
}

func (s *RedisStoreSuite) TestPrefixesIsolatePools() {
	ctx := context.Background()
	first := redisstore.New(s.redis.Client, redisstore.WithPrefix("pool-one"))
	second := redisstore.New(s.redis.Client, redisstore.WithPrefix("pool-two"))

	s.Require().NoError(first.SetTotalDonations(ctx, uint256.NewInt(7)))
	total, err := second.TotalDonations(ctx)
	s.Require().NoError(err)
	s.True(total.IsZero())
}
