// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rubick Contributors

// Package installer manages native plugins in an install root isolated from
// the host's own dependencies, driving npm as the package manager.
package installer

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/gclm/rubick/internal/hostapi"
	"github.com/gclm/rubick/internal/plugin"
)

var tracer = otel.Tracer("rubick/installer")

// Defaults for registry and metadata lookups.
const (
	DefaultRegistry = "https://registry.npmmirror.com/"
	DefaultCDN      = "https://cdn.jsdelivr.net/npm"

	// ConfigDocID is the persisted launcher configuration document.
	ConfigDocID = "rubick-localhost-config"

	upgradeTimeout  = 2 * time.Second
	versionCacheTTL = 30 * time.Minute
	versionCacheMax = 512
)

// ConfigReader reads persisted configuration documents.
type ConfigReader interface {
	Get(ctx context.Context, id string) (hostapi.Doc, error)
}

// RegistryConfig is resolved once when the installer is created.
type RegistryConfig struct {
	BaseDir     string
	RegistryURL string
	CacheDir    string
}

// InstallOptions selects the install mode.
type InstallOptions struct {
	// IsDev links local packages instead of fetching from the registry.
	IsDev bool
}

// Installer drives npm against one install root.
type Installer struct {
	layout   plugin.Layout
	config   RegistryConfig
	runner   Runner
	npm      string
	http     *http.Client
	cdn      string
	retryMin time.Duration

	configReader ConfigReader
	registryOpt  string

	versions *expirable.LRU[string, string]
	lookups  singleflight.Group
}

// Option configures an Installer.
type Option func(*Installer)

// WithRegistry sets the registry used when no persisted override exists.
func WithRegistry(url string) Option {
	return func(i *Installer) { i.registryOpt = url }
}

// WithConfigReader sets where the persisted registry override is read from.
func WithConfigReader(r ConfigReader) Option {
	return func(i *Installer) { i.configReader = r }
}

// WithRunner replaces the process runner.
func WithRunner(r Runner) Option {
	return func(i *Installer) { i.runner = r }
}

// WithNPM sets the package manager executable.
func WithNPM(path string) Option {
	return func(i *Installer) { i.npm = path }
}

// WithHTTPClient sets the client used for registry and CDN lookups.
func WithHTTPClient(c *http.Client) Option {
	return func(i *Installer) { i.http = c }
}

// WithCDN sets the base URL of the metadata CDN.
func WithCDN(url string) Option {
	return func(i *Installer) { i.cdn = url }
}

// WithRetryBase sets the first backoff interval of CDN retries.
func WithRetryBase(d time.Duration) Option {
	return func(i *Installer) { i.retryMin = d }
}

// New prepares baseDir as an install root and resolves the registry.
func New(ctx context.Context, baseDir string, opts ...Option) (*Installer, error) {
	if baseDir == "" {
		return nil, oops.Code(plugin.CodeConfigurationInvalid).Errorf("install root is required")
	}

	i := &Installer{
		layout:   plugin.NewLayout(baseDir),
		runner:   ExecRunner{},
		npm:      defaultNPM(),
		http:     &http.Client{Timeout: 30 * time.Second},
		cdn:      DefaultCDN,
		retryMin: 200 * time.Millisecond,
		versions: expirable.NewLRU[string, string](versionCacheMax, nil, versionCacheTTL),
	}
	for _, opt := range opts {
		opt(i)
	}

	if err := i.layout.Ensure(); err != nil {
		return nil, err
	}

	i.config = RegistryConfig{
		BaseDir:     baseDir,
		RegistryURL: i.resolveRegistry(ctx),
		CacheDir:    i.layout.CacheDir(),
	}
	slog.Debug("installer ready",
		"path", baseDir,
		"registry", i.config.RegistryURL)
	return i, nil
}

func defaultNPM() string {
	if runtime.GOOS == "windows" {
		return "npm.cmd"
	}
	return "npm"
}

// Config returns the resolved registry configuration.
func (i *Installer) Config() RegistryConfig {
	return i.config
}

// Layout returns the install root layout.
func (i *Installer) Layout() plugin.Layout {
	return i.layout
}

// Install installs names. Production mode fetches name@latest from the
// registry; dev mode links the packages.
func (i *Installer) Install(ctx context.Context, names []string, opts InstallOptions) (err error) {
	if len(names) == 0 {
		return nil
	}
	start := time.Now()
	op := "install"
	if opts.IsDev {
		op = "link"
	}
	ctx, span := tracer.Start(ctx, "installer."+op,
		trace.WithAttributes(attribute.StringSlice("plugin.names", names)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		plugin.RecordOperation(plugin.ComponentInstaller, op, start, err)
	}()

	unlock := plugin.LockRoot(i.config.BaseDir)
	defer unlock()

	if opts.IsDev {
		return i.link(ctx, names)
	}
	return i.install(ctx, names)
}

func (i *Installer) install(ctx context.Context, names []string) error {
	args := []string{
		"install",
		"--prefix", i.config.BaseDir,
		"--save",
		"--cache", i.config.CacheDir,
		"--registry", i.config.RegistryURL,
	}
	for _, name := range names {
		args = append(args, name+"@latest")
	}

	slog.Info("installing plugins",
		"plugins", names,
		"registry", i.config.RegistryURL)
	return i.run(ctx, "install", args)
}

func (i *Installer) link(ctx context.Context, names []string) error {
	args := append([]string{"link", "--prefix", i.config.BaseDir}, names...)

	slog.Info("linking plugins", "plugins", names)
	return i.run(ctx, "link", args)
}

// Uninstall removes names. Dev mode deletes the plugin directories; names
// that are neither declared nor on disk are already uninstalled.
func (i *Installer) Uninstall(ctx context.Context, names []string, opts InstallOptions) (err error) {
	if len(names) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { plugin.RecordOperation(plugin.ComponentInstaller, "uninstall", start, err) }()

	unlock := plugin.LockRoot(i.config.BaseDir)
	defer unlock()

	if opts.IsDev {
		for _, name := range names {
			if err := i.layout.RemovePlugin(name); err != nil {
				return oops.With("operation", "uninstall").Wrap(err)
			}
		}
		return nil
	}

	present, err := i.present(names)
	if err != nil {
		return err
	}
	if len(present) == 0 {
		slog.Debug("nothing to uninstall", "plugins", names)
		return nil
	}

	args := append([]string{
		"uninstall",
		"--prefix", i.config.BaseDir,
		"--save",
		"--registry", i.config.RegistryURL,
	}, present...)

	slog.Info("uninstalling plugins", "plugins", present)
	return i.run(ctx, "uninstall", args)
}

// present keeps the names that are declared in the root manifest or have a
// directory below node_modules.
func (i *Installer) present(names []string) ([]string, error) {
	deps, err := i.layout.Dependencies()
	if err != nil {
		return nil, oops.With("operation", "uninstall").Wrap(err)
	}

	var out []string
	for _, name := range names {
		if _, ok := deps[name]; ok {
			out = append(out, name)
			continue
		}
		if _, err := os.Stat(i.layout.PluginDir(name)); err == nil {
			out = append(out, name)
		}
	}
	return out, nil
}

// Update re-installs names from the registry.
func (i *Installer) Update(ctx context.Context, names ...string) (err error) {
	if len(names) == 0 {
		return nil
	}
	start := time.Now()
	defer func() { plugin.RecordOperation(plugin.ComponentInstaller, "update", start, err) }()

	unlock := plugin.LockRoot(i.config.BaseDir)
	defer unlock()

	return i.install(ctx, names)
}

// List returns the sorted names declared as dependencies of the root.
func (i *Installer) List(_ context.Context) ([]string, error) {
	return i.layout.DependencyNames()
}

func (i *Installer) run(ctx context.Context, operation string, args []string) error {
	out, err := i.runner.Run(ctx, i.config.BaseDir, i.npm, args...)
	if err != nil {
		toolErr := &ToolError{Command: i.npm, Args: args, Output: string(out), Err: err}
		return oops.Code(plugin.CodeExternalToolFailed).
			With("operation", operation).
			With("path", i.config.BaseDir).
			Wrap(toolErr)
	}
	slog.Debug("package manager finished",
		"operation", operation,
		"output_bytes", len(out))
	return nil
}
