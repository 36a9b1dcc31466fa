package lock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/maraichr/coursesync/internal/syncer"
)

const valkeyKeyPrefix = "coursesync:lock:"

// unlockScript deletes the key only if it still carries our token, so a
// holder whose TTL lapsed cannot free someone else's lock.
var unlockScript = valkey.NewLuaScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// refreshScript extends the TTL only while the key still carries our token.
var refreshScript = valkey.NewLuaScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

var errLockLost = errors.New("lock lost while held")

// Valkey holds locks as SET NX keys with a TTL, so a crashed holder cannot
// block a course forever. A live holder refreshes the TTL every third of
// its length until Release.
type Valkey struct {
	client valkey.Client
	ttl    time.Duration
}

func NewValkey(client valkey.Client, ttl time.Duration) *Valkey {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Valkey{client: client, ttl: ttl}
}

func (v *Valkey) TryLock(ctx context.Context, name string) (syncer.Lock, error) {
	token, err := newToken()
	if err != nil {
		return nil, err
	}
	key := valkeyKeyPrefix + name

	err = v.client.Do(ctx, v.client.B().Set().Key(key).Value(token).Nx().Ex(v.ttl).Build()).Error()
	if valkey.IsValkeyNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("set lock %s: %w", name, err)
	}

	l := &valkeyLock{client: v.client, key: key, name: name, token: token, ttl: v.ttl, done: make(chan struct{})}
	watchCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	l.stop = stop
	go func() {
		defer close(l.done)
		l.watchErr = keepAlive(watchCtx, v.ttl/3, l.refresh)
	}()
	return l, nil
}

type valkeyLock struct {
	client valkey.Client
	key    string
	name   string
	token  string
	ttl    time.Duration

	stop     context.CancelFunc
	done     chan struct{}
	watchErr error // read only after done is closed
}

func (l *valkeyLock) Name() string { return l.name }

func (l *valkeyLock) refresh(ctx context.Context) (bool, error) {
	n, err := refreshScript.Exec(ctx, l.client, []string{l.key},
		[]string{l.token, strconv.FormatInt(l.ttl.Milliseconds(), 10)}).AsInt64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Release stops the refresher and deletes the key. A refresh failure that
// was never recovered is reported here.
func (l *valkeyLock) Release(ctx context.Context) error {
	l.stop()
	<-l.done

	n, err := unlockScript.Exec(ctx, l.client, []string{l.key}, []string{l.token}).AsInt64()
	switch {
	case err != nil:
		return errors.Join(fmt.Errorf("release lock %s: %w", l.name, err), l.watchErr)
	case l.watchErr != nil:
		return fmt.Errorf("lock %s: %w", l.name, l.watchErr)
	case n == 0:
		return fmt.Errorf("lock %s expired before release", l.name)
	}
	return nil
}

// keepAlive calls refresh every interval until ctx is cancelled or the lock
// is gone. A refresh error is retried on the next tick and only returned
// if no later refresh succeeded.
func keepAlive(ctx context.Context, interval time.Duration, refresh func(context.Context) (bool, error)) error {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		select {
		case <-ctx.Done():
			return lastErr
		case <-ticker.C:
		}
		held, err := refresh(ctx)
		if ctx.Err() != nil {
			return lastErr
		}
		if err != nil {
			lastErr = fmt.Errorf("refresh: %w", err)
			continue
		}
		if !held {
			return errLockLost
		}
		lastErr = nil
	}
}

func newToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate lock token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
