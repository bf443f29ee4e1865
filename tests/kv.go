package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

// ErrKVDown is returned by Set and SetNX of a KV whose FailWrites is set.
var ErrKVDown = errors.New("kv: connection refused")

// KV is an in-memory stand-in for the redis commands used by the document cache.
type KV struct {
	mu   sync.Mutex
	Data map[string]string
	TTLs map[string]time.Duration

	FailWrites bool
}

func NewKV() *KV {
	return &KV{Data: make(map[string]string), TTLs: make(map[string]time.Duration)}
}

func (kv *KV) Get(_ context.Context, key string) *goredis.StringCmd {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	v, ok := kv.Data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (kv *KV) Set(_ context.Context, key string, value interface{}, exp time.Duration) *goredis.StatusCmd {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.FailWrites {
		return goredis.NewStatusResult("", ErrKVDown)
	}
	kv.set(key, value, exp)
	return goredis.NewStatusResult("OK", nil)
}

func (kv *KV) SetNX(_ context.Context, key string, value interface{}, exp time.Duration) *goredis.BoolCmd {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	if kv.FailWrites {
		return goredis.NewBoolResult(false, ErrKVDown)
	}
	if _, ok := kv.Data[key]; ok {
		return goredis.NewBoolResult(false, nil)
	}
	kv.set(key, value, exp)
	return goredis.NewBoolResult(true, nil)
}

func (kv *KV) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	var n int64
	for _, key := range keys {
		if _, ok := kv.Data[key]; ok {
			delete(kv.Data, key)
			delete(kv.TTLs, key)
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

// Flush drops every key.
func (kv *KV) Flush() {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.Data = make(map[string]string)
	kv.TTLs = make(map[string]time.Duration)
}

func (kv *KV) set(key string, value interface{}, exp time.Duration) {
	switch v := value.(type) {
	case []byte:
		kv.Data[key] = string(v)
	case string:
		kv.Data[key] = v
	}
	kv.TTLs[key] = exp
}
