package cache

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/reelgraph/reelgraph-backend/internal/platform/logger"
)

// fakeRedis implements Commands in memory. failAll forces every call to
// fail, to exercise the propagation paths.
type fakeRedis struct {
	strings map[string]string
	hashes  map[string]map[string]string
	expires map[string]time.Duration
	failAll error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		strings: map[string]string{},
		hashes:  map[string]map[string]string{},
		expires: map[string]time.Duration{},
	}
}

func (f *fakeRedis) Get(ctx context.Context, key string) *goredis.StringCmd {
	if f.failAll != nil {
		return goredis.NewStringResult("", f.failAll)
	}
	v, ok := f.strings[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd {
	if f.failAll != nil {
		return goredis.NewStatusResult("", f.failAll)
	}
	f.strings[key] = stringify(value)
	f.expires[key] = expiration
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) HSet(ctx context.Context, key string, values ...interface{}) *goredis.IntCmd {
	if f.failAll != nil {
		return goredis.NewIntResult(0, f.failAll)
	}
	h := f.hashes[key]
	if h == nil {
		h = map[string]string{}
		f.hashes[key] = h
	}
	if len(values) == 1 {
		if m, ok := values[0].(map[string]string); ok {
			for k, v := range m {
				h[k] = v
			}
		}
	} else {
		for i := 0; i+1 < len(values); i += 2 {
			h[stringify(values[i])] = stringify(values[i+1])
		}
	}
	return goredis.NewIntResult(int64(len(h)), nil)
}

func (f *fakeRedis) HGetAll(ctx context.Context, key string) *goredis.MapStringStringCmd {
	if f.failAll != nil {
		return goredis.NewMapStringStringResult(nil, f.failAll)
	}
	out := map[string]string{}
	for k, v := range f.hashes[key] {
		out[k] = v
	}
	return goredis.NewMapStringStringResult(out, nil)
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	if f.failAll != nil {
		return goredis.NewIntResult(0, f.failAll)
	}
	var n int64
	for _, key := range keys {
		if _, ok := f.strings[key]; ok {
			delete(f.strings, key)
			n++
		}
		if _, ok := f.hashes[key]; ok {
			delete(f.hashes, key)
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func (f *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) *goredis.BoolCmd {
	if f.failAll != nil {
		return goredis.NewBoolResult(false, f.failAll)
	}
	f.expires[key] = expiration
	return goredis.NewBoolResult(true, nil)
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func testLogger() *logger.Logger {
	log, err := logger.New("production")
	if err != nil {
		panic(err)
	}
	return log
}
