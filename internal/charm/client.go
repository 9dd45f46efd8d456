// ABOUTME: Charm KV client wrapper using transactional Do API
// ABOUTME: Short-lived connections to avoid lock contention with other processes

package charm

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/charm/client"
	"github.com/charmbracelet/charm/kv"
	charmproto "github.com/charmbracelet/charm/proto"
	"github.com/rs/zerolog"
)

const (
	// DBName is the name of the charm kv database for notes.
	DBName = "notes"
)

// Client holds configuration for KV operations.
// It does NOT hold a persistent connection: each operation opens the
// database, performs the operation, and closes it.
type Client struct {
	dbName         string
	host           string
	autoSync       bool
	staleThreshold time.Duration
	log            zerolog.Logger

	// writes serializes Do calls from this process; kv.Do takes the
	// on-disk lock per call and would fail if two overlapped.
	writes sync.Mutex
}

// Option configures a Client.
type Option func(*Client)

// WithDBName sets the database name.
func WithDBName(name string) Option {
	return func(c *Client) {
		c.dbName = name
	}
}

// WithHost points the client at a self-hosted charm server.
func WithHost(host string) Option {
	return func(c *Client) {
		c.host = host
	}
}

// WithAutoSync enables or disables auto-sync after writes.
func WithAutoSync(enabled bool) Option {
	return func(c *Client) {
		c.autoSync = enabled
	}
}

// WithStaleThreshold makes reads sync first when the last sync is older
// than d. Zero disables the check.
func WithStaleThreshold(d time.Duration) Option {
	return func(c *Client) {
		c.staleThreshold = d
	}
}

// WithLogger sets the logger for sync events.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.log = l
	}
}

// NewClient creates a new client with the given options.
func NewClient(opts ...Option) (*Client, error) {
	c := &Client{
		dbName: DBName,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.host != "" {
		if err := os.Setenv("CHARM_HOST", c.host); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// DoReadOnly executes a function with read-only database access.
func (c *Client) DoReadOnly(fn func(k *kv.KV) error) error {
	if err := c.SyncIfStale(); err != nil {
		return err
	}
	return kv.DoReadOnly(c.dbName, fn)
}

// Do executes a function with write access to the database, syncing
// afterwards when auto-sync is on.
func (c *Client) Do(fn func(k *kv.KV) error) error {
	c.writes.Lock()
	defer c.writes.Unlock()
	return kv.Do(c.dbName, func(k *kv.KV) error {
		if err := fn(k); err != nil {
			return err
		}
		if c.autoSync {
			return k.Sync()
		}
		return nil
	})
}

// Sync triggers a manual sync with the charm server.
func (c *Client) Sync() error {
	c.writes.Lock()
	defer c.writes.Unlock()
	return kv.Do(c.dbName, func(k *kv.KV) error {
		return k.Sync()
	})
}

// LastSyncTime returns the timestamp of the last sync operation.
func (c *Client) LastSyncTime() time.Time {
	var lastSync time.Time
	_ = kv.DoReadOnly(c.dbName, func(k *kv.KV) error {
		lastSync = k.LastSyncTime()
		return nil
	})
	return lastSync
}

// IsStale checks if the data is stale based on the configured threshold.
func (c *Client) IsStale() bool {
	if c.staleThreshold == 0 {
		return false
	}
	var isStale bool
	_ = kv.DoReadOnly(c.dbName, func(k *kv.KV) error {
		isStale = k.IsStale(c.staleThreshold)
		return nil
	})
	return isStale
}

// SyncIfStale syncs with the charm server if data is stale.
func (c *Client) SyncIfStale() error {
	if !c.IsStale() {
		return nil
	}
	c.log.Info().Dur("threshold", c.staleThreshold).Msg("data stale, syncing")
	return c.Sync()
}

// ID returns the charm user ID for this device.
func (c *Client) ID() (string, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return "", err
	}
	return cc.ID()
}

// User returns the current charm user information.
func (c *Client) User() (*charmproto.User, error) {
	cc, err := client.NewClientWithDefaults()
	if err != nil {
		return nil, err
	}
	return cc.Bio()
}

// Close is a no-op; connections are closed after each operation.
func (c *Client) Close() error {
	return nil
}
