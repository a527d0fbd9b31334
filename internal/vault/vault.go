// internal/vault/vault.go
//
// Vault client wrapper for the portal.
//
// Context
// -------
//   - Configuration values that look like `vault:<mount>/<path>#<key>` are
//     secrets (JWT signing key, audit-database password).  The config loader
//     hands each reference to Resolve before unmarshalling.
//   - Wraps the HashiCorp Vault Go SDK with KV-v2 reads, a per-key TTL
//     cache, and an optional background token-renewal loop.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(vault.Options{Log: log.Infof})   // during boot.
//  2. v, err := cli.Resolve(ctx, "vault:secret/portal#jwt_secret")
//  3. go cli.RenewLoop(ctx)                                  // optional.
package vault

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	vault "github.com/hashicorp/vault/api"
)

// RefPrefix marks a configuration value as a Vault reference.
const RefPrefix = "vault:"

// DefaultTTL is how long a resolved secret stays cached.
const DefaultTTL = 10 * time.Minute

// ErrBadRef is returned by ParseRef for malformed references.
var ErrBadRef = errors.New("vault: malformed secret reference")

// Options configures New.  Empty Address and Token fall back to VAULT_ADDR
// and VAULT_TOKEN through the SDK's environment reader.
type Options struct {
	Address string
	Token   string
	Log     func(string, ...any)
}

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	api   *vault.Client
	logFn func(string, ...any)

	cacheMu sync.RWMutex
	cache   map[string]cached // "path#key" → value + expiry
}

type cached struct {
	val string
	exp time.Time
}

// New constructs a Vault client.  It does not contact the server.
func New(opts Options) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}
	if opts.Address != "" {
		cfg.Address = opts.Address
	}

	apiCli, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if opts.Token != "" {
		apiCli.SetToken(opts.Token)
	}

	logFn := opts.Log
	if logFn == nil {
		logFn = func(string, ...any) {}
	}
	return &Client{api: apiCli, logFn: logFn, cache: make(map[string]cached)}, nil
}

// IsRef reports whether s is a Vault reference.
func IsRef(s string) bool { return strings.HasPrefix(s, RefPrefix) }

// ParseRef splits "vault:<mount>/<path>#<key>" into its secret path and key.
func ParseRef(ref string) (secretPath, key string, err error) {
	if !IsRef(ref) {
		return "", "", ErrBadRef
	}
	body := strings.TrimPrefix(ref, RefPrefix)
	i := strings.LastIndexByte(body, '#')
	if i <= 0 || i == len(body)-1 {
		return "", "", fmt.Errorf("%w: %q", ErrBadRef, ref)
	}
	secretPath, key = body[:i], body[i+1:]
	if mount, rel := splitMount(secretPath); mount == "" || rel == "" {
		return "", "", fmt.Errorf("%w: %q needs <mount>/<path>", ErrBadRef, ref)
	}
	return secretPath, key, nil
}

// Resolve fetches the secret a reference points at, cached for DefaultTTL.
func (c *Client) Resolve(ctx context.Context, ref string) (string, error) {
	p, k, err := ParseRef(ref)
	if err != nil {
		return "", err
	}
	return c.GetKV(ctx, p, k, DefaultTTL)
}

// GetKV fetches a single key from a KV-v2 secret.  If ttl > 0 the result is
// cached for that duration.
func (c *Client) GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error) {
	if secretPath == "" || key == "" {
		return "", errors.New("vault: secret path and key must be non-empty")
	}
	canonical := secretPath + "#" + key

	if ttl > 0 {
		c.cacheMu.RLock()
		cv, ok := c.cache[canonical]
		c.cacheMu.RUnlock()
		if ok && time.Now().Before(cv.exp) {
			return cv.val, nil
		}
	}

	mount, rel := splitMount(secretPath)
	sec, err := c.api.KVv2(mount).Get(ctx, rel)
	if err != nil {
		return "", fmt.Errorf("vault get %s: %w", secretPath, err)
	}

	raw, ok := sec.Data[key]
	if !ok {
		return "", fmt.Errorf("vault: key %q not found in secret %q", key, secretPath)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("vault: value at %s is not a string", canonical)
	}

	if ttl > 0 {
		c.cacheMu.Lock()
		c.cache[canonical] = cached{val: sval, exp: time.Now().Add(ttl)}
		c.cacheMu.Unlock()
	}
	return sval, nil
}

// RenewLoop keeps a renewable token alive until ctx is done.  Run it in its
// own goroutine.
func (c *Client) RenewLoop(ctx context.Context) {
	for ctx.Err() == nil {
		sec, err := c.api.Auth().Token().RenewSelfWithContext(ctx, 0)
		if err != nil {
			c.logFn("vault: token renew self failed: %v", err)
			sleep(ctx, 30*time.Second)
			continue
		}
		if sec == nil || sec.Auth == nil || !sec.Auth.Renewable {
			c.logFn("vault: token is not renewable, sleeping 1h")
			sleep(ctx, time.Hour)
			continue
		}

		watcher, err := c.api.NewLifetimeWatcher(&vault.LifetimeWatcherInput{
			Secret: sec,
		})
		if err != nil {
			c.logFn("vault: watcher init error: %v", err)
			sleep(ctx, 30*time.Second)
			continue
		}
		c.watch(ctx, watcher)
	}
}

// watch blocks until the watcher finishes or ctx is done.
func (c *Client) watch(ctx context.Context, w *vault.LifetimeWatcher) {
	go w.Start()
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-w.DoneCh():
			if err != nil {
				c.logFn("vault: token renewal stopped: %v", err)
			}
			sleep(ctx, 15*time.Second)
			return
		case ev := <-w.RenewCh():
			if ev != nil && ev.Secret != nil && ev.Secret.Auth != nil {
				c.logFn("vault: token renewed, ttl=%ds", ev.Secret.Auth.LeaseDuration)
			}
		}
	}
}

func splitMount(p string) (mount, rel string) {
	parts := strings.SplitN(strings.Trim(p, "/"), "/", 2)
	mount = parts[0]
	if len(parts) == 2 {
		rel = parts[1]
	}
	return mount, rel
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
