package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_TrimAndTruncateAndEmpty(t *testing.T) {
	if k, ok := Key("u1", "  demo-1  "); assert.True(t, ok) {
		assert.Equal(t, "idem:reservation:u1:demo-1", k)
	}
	if _, ok := Key("u1", "   "); assert.False(t, ok) {
		// absent key means the caller skips the idempotency gate entirely
	}
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'a'
	}
	k, ok := Key("u1", string(long))
	require.True(t, ok)
	assert.Len(t, k, len("idem:reservation:u1:")+maxKeyLen)
}

func TestClaim_FirstWriter(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := New(rdb)

	key := "idem:reservation:u1:demo-1"
	mock.ExpectEvalSha(claimScript.Hash(), []string{key}, processingSentinel, int64(60000)).
		SetVal([]interface{}{int64(1), ""})

	res, err := s.Claim(context.Background(), key, 60*time.Second)
	require.NoError(t, err)
	assert.True(t, res.FirstWriter)
	assert.False(t, res.Hit)
	assert.False(t, res.Pending)
}

func TestClaim_Pending(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := New(rdb)

	key := "idem:reservation:u1:demo-1"
	mock.ExpectEvalSha(claimScript.Hash(), []string{key}, processingSentinel, int64(60000)).
		SetVal([]interface{}{int64(0), processingSentinel})

	res, err := s.Claim(context.Background(), key, 60*time.Second)
	require.NoError(t, err)
	assert.True(t, res.Pending)
}

func TestClaim_Hit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := New(rdb)

	key := "idem:reservation:u1:demo-1"
	cached := `{"message":"reservation created","reservationIds":["r1"]}`
	mock.ExpectEvalSha(claimScript.Hash(), []string{key}, processingSentinel, int64(60000)).
		SetVal([]interface{}{int64(0), cached})

	res, err := s.Claim(context.Background(), key, 60*time.Second)
	require.NoError(t, err)
	assert.True(t, res.Hit)
	assert.Equal(t, cached, res.Response)
}

func TestGet_StillProcessingReadsAsNotReady(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := New(rdb)

	key := "idem:reservation:u1:demo-1"
	mock.ExpectGet(key).SetVal(processingSentinel)

	_, ready, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ready)
}

func TestGet_Absent(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := New(rdb)

	key := "idem:reservation:u1:demo-1"
	mock.ExpectGet(key).RedisNil()

	_, ready, err := s.Get(context.Background(), key)
	require.NoError(t, err)
	assert.False(t, ready)
}

func TestStore_ReplacesMarker(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := New(rdb)

	key := "idem:reservation:u1:demo-1"
	mock.ExpectSet(key, "final-body", 60*time.Second).SetVal("OK")

	err := s.Store(context.Background(), key, "final-body", 60*time.Second)
	require.NoError(t, err)
}

func TestAbandon_DeletesMarker(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	s := New(rdb)

	key := "idem:reservation:u1:demo-1"
	mock.ExpectDel(key).SetVal(1)

	err := s.Abandon(context.Background(), key)
	require.NoError(t, err)
}
