package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/julianstephens/hard75/internal/api"
	"github.com/julianstephens/hard75/internal/backup"
	"github.com/julianstephens/hard75/internal/cache"
	"github.com/julianstephens/hard75/internal/constants"
	apperrors "github.com/julianstephens/hard75/internal/errors"
	"github.com/julianstephens/hard75/internal/keyring"
	"github.com/julianstephens/hard75/internal/logger"
	"github.com/julianstephens/hard75/internal/storage"
	"github.com/julianstephens/hard75/internal/utils"
)

// probeTimeout bounds the connectivity check made when a command starts.
const probeTimeout = 3 * time.Second

// Config is the resolved global configuration shared by every command.
type Config struct {
	APIURL        string
	Token         string
	Cache         string
	ConfigDir     string
	SyncInterval  time.Duration
	ProbeInterval time.Duration
	APITimeout    time.Duration
	Timezone      string
	Offline       bool
	Debug         bool
}

type Context struct {
	Config Config
	Out    io.Writer
	Now    func() time.Time
	// HTTPClient overrides the API transport. Nil uses a client with
	// Config.APITimeout.
	HTTPClient *http.Client
	// Interactive reports whether prompts may be shown.
	Interactive bool

	cache  *cache.Cache
	facade *storage.Facade
}

// NewContext returns a context writing to stdout.
func NewContext(cfg Config) *Context {
	return &Context{
		Config:      cfg,
		Out:         os.Stdout,
		Now:         time.Now,
		Interactive: isTerminal(os.Stdin),
	}
}

// UseTimezone makes the context clock read wall time in timezone.
func (c *Context) UseTimezone(timezone string) error {
	clock, err := utils.ClockIn(timezone, c.Now)
	if err != nil {
		return apperrors.Configuration(err.Error())
	}
	c.Config.Timezone = timezone
	c.Now = clock
	return nil
}

// Today is the current local date.
func (c *Context) Today() string {
	return utils.Today(c.CurrentTime())
}

// CurrentTime reads the context clock.
func (c *Context) CurrentTime() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

// ConfigDir resolves the configuration directory, expanding "~".
func (c *Context) ConfigDir() (string, error) {
	dir := c.Config.ConfigDir
	if dir == "" {
		dir = constants.DefaultConfigDir
	}
	return utils.ExpandPath(dir)
}

// CacheLocation resolves the cache location, expanding "~".
func (c *Context) CacheLocation() (string, error) {
	location := c.Config.Cache
	if location == "" {
		location = constants.DefaultCachePath
	}
	if !backup.Supported(location) {
		return location, nil
	}
	return utils.ExpandPath(location)
}

// OpenCache opens the local cache without contacting the API.
func (c *Context) OpenCache() (*cache.Cache, error) {
	if c.cache != nil {
		return c.cache, nil
	}
	location, err := c.CacheLocation()
	if err != nil {
		return nil, err
	}
	store, err := cache.Open(location)
	if err != nil {
		return nil, err
	}
	c.cache = store
	return store, nil
}

// Client builds an API client from the configuration. A missing API URL is a
// configuration error.
func (c *Context) Client() (*api.Client, error) {
	return api.New(api.Options{
		BaseURL:    c.Config.APIURL,
		Timeout:    c.Config.APITimeout,
		Tokens:     keyring.TokenSource{Explicit: c.Config.Token},
		HTTPClient: c.HTTPClient,
	})
}

// Facade opens the cache, builds the API client and returns the storage
// façade. Unless --offline is set the API is probed once so that queued
// changes drain before the command runs.
func (c *Context) Facade(ctx context.Context) (*storage.Facade, error) {
	if c.facade != nil {
		return c.facade, nil
	}
	client, err := c.Client()
	if err != nil {
		return nil, err
	}
	store, err := c.OpenCache()
	if err != nil {
		return nil, err
	}

	f := storage.New(client, store, storage.Options{
		SyncInterval:  c.Config.SyncInterval,
		ProbeInterval: c.Config.ProbeInterval,
		Offline:       true,
		Now:           c.Now,
	})
	if !c.Config.Offline {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		online := f.Probe(probeCtx)
		cancel()
		if !online {
			logger.Warn("API unreachable, working from the local cache", "url", client.BaseURL())
		}
	}
	c.facade = f
	return f, nil
}

// Close releases the cache.
func (c *Context) Close() error {
	c.facade = nil
	if c.cache == nil {
		return nil
	}
	err := c.cache.Close()
	c.cache = nil
	if err != nil {
		return fmt.Errorf("failed to close cache: %w", err)
	}
	return nil
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
