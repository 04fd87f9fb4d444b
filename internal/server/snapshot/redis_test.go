package snapshot

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/medchat/internal/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeKV struct {
	data   map[string]string
	setErr error
	getErr error
	closed bool
}

func (f *fakeKV) Get(ctx context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	if f.setErr != nil {
		return redis.NewStatusResult("", f.setErr)
	}
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	default:
		f.data[key] = fmt.Sprint(v)
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeKV) Close() error {
	f.closed = true
	return nil
}

func TestRedisStore_SaveAndLoad(t *testing.T) {
	t.Parallel()

	fake := &fakeKV{data: map[string]string{}}
	s := &RedisStore{client: fake}
	ctx := context.Background()

	_, err := s.Load(ctx, NameChatHistory)
	require.ErrorIs(t, err, common.ErrorNotFound)

	require.NoError(t, s.Save(ctx, NameChatHistory, []byte(`{"alice":[]}`)))
	assert.Equal(t, `{"alice":[]}`, fake.data["medchat:snapshot:chat_history"])

	got, err := s.Load(ctx, NameChatHistory)
	require.NoError(t, err)
	assert.Equal(t, `{"alice":[]}`, string(got))

	require.NoError(t, s.Close())
	assert.True(t, fake.closed)
}

func TestRedisStore_Errors(t *testing.T) {
	t.Parallel()

	fake := &fakeKV{data: map[string]string{}, setErr: errors.New("READONLY"), getErr: errors.New("LOADING")}
	s := &RedisStore{client: fake}

	require.Error(t, s.Save(context.Background(), NameUsers, []byte("x")))

	_, err := s.Load(context.Background(), NameUsers)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}
