package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/vango-dev/waypoint/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "waypoint.json"

	// DefaultPort is the default preview server port.
	DefaultPort = 3000

	// DefaultHost is the default preview server host.
	DefaultHost = "localhost"

	// DefaultOutput is the default build output directory.
	DefaultOutput = "dist"

	// DefaultEntryName is the unit name of the application entry.
	DefaultEntryName = "index"

	// DefaultVendorUnit collects runtime modules not named in a manual chunk.
	DefaultVendorUnit = "vendor"

	// DefaultChunkSizeWarningLimit is in kilobytes.
	DefaultChunkSizeWarningLimit = 500

	// DefaultAssetsInlineLimit is in bytes.
	DefaultAssetsInlineLimit = 4096
)

// Build modes.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Config represents waypoint.json.
type Config struct {
	// Name is the application name appended to page titles.
	Name string `json:"name,omitempty"`

	// Version is the project version.
	Version string `json:"version,omitempty"`

	// Mode is "development" or "production".
	Mode string `json:"mode,omitempty"`

	// Base is the public base path used in production, e.g. "/docs/".
	Base string `json:"base,omitempty"`

	// Paths contains project file locations.
	Paths PathsConfig `json:"paths,omitempty"`

	// Dev contains preview server configuration.
	Dev DevConfig `json:"dev,omitempty"`

	// Build contains partitioning and output configuration.
	Build BuildConfig `json:"build,omitempty"`

	// Publish contains upload configuration.
	Publish PublishConfig `json:"publish,omitempty"`

	configPath string
}

// PathsConfig contains project file locations, relative to the project.
type PathsConfig struct {
	// Routes is the route table file.
	Routes string `json:"routes,omitempty"`

	// Modules is the module manifest file.
	Modules string `json:"modules,omitempty"`

	// Source is the directory module and asset paths are relative to.
	Source string `json:"source,omitempty"`
}

// DevConfig contains preview server settings.
type DevConfig struct {
	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Open opens the browser on start.
	Open bool `json:"open,omitempty"`

	// CORS allows cross-origin requests.
	CORS bool `json:"cors,omitempty"`

	// Watch lists paths to watch for changes.
	Watch []string `json:"watch,omitempty"`

	// Ignore lists glob patterns ignored by the watcher.
	Ignore []string `json:"ignore,omitempty"`

	// HotReload notifies browsers after a rebuild.
	HotReload bool `json:"hotReload,omitempty"`
}

// BuildConfig controls the load-unit partitioner.
type BuildConfig struct {
	// Output is the output directory.
	Output string `json:"output,omitempty"`

	// EntryName is the unit name for entry modules.
	EntryName string `json:"entryName,omitempty"`

	// VendorUnit receives runtime modules not named in ManualChunks.
	VendorUnit string `json:"vendorUnit,omitempty"`

	// ManualChunks maps a unit name to the runtime modules it groups.
	ManualChunks map[string][]string `json:"manualChunks,omitempty"`

	// AssetCategories maps a file extension (without dot) to an output
	// directory. Extensions not listed go to a directory named after the
	// extension itself.
	AssetCategories map[string]string `json:"assetCategories,omitempty"`

	// ChunkSizeWarningLimit is the unit size in kilobytes above which the
	// build warns.
	ChunkSizeWarningLimit int `json:"chunkSizeWarningLimit,omitempty"`

	// AssetsInlineLimit is the size in bytes below which assets are also
	// recorded as data URIs. Zero disables inlining.
	AssetsInlineLimit int `json:"assetsInlineLimit,omitempty"`
}

// PublishConfig configures uploads of the build output.
type PublishConfig struct {
	Bucket   string `json:"bucket,omitempty"`
	Region   string `json:"region,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

// DefaultAssetCategories classifies images and fonts.
func DefaultAssetCategories() map[string]string {
	categories := make(map[string]string)
	for _, ext := range []string{"png", "jpg", "jpeg", "svg", "gif", "tiff", "bmp", "ico"} {
		categories[ext] = "images"
	}
	for _, ext := range []string{"woff", "woff2", "ttf"} {
		categories[ext] = "fonts"
	}
	return categories
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Version: "0.1.0",
		Mode:    ModeProduction,
		Base:    "/",
		Paths: PathsConfig{
			Routes:  "routes.yaml",
			Modules: "modules.yaml",
			Source:  ".",
		},
		Dev: DevConfig{
			Port:      DefaultPort,
			Host:      DefaultHost,
			HotReload: true,
			Watch:     []string{"src", "routes.yaml", "modules.yaml"},
		},
		Build: BuildConfig{
			Output:                DefaultOutput,
			EntryName:             DefaultEntryName,
			VendorUnit:            DefaultVendorUnit,
			AssetCategories:       DefaultAssetCategories(),
			ChunkSizeWarningLimit: DefaultChunkSizeWarningLimit,
			AssetsInlineLimit:     DefaultAssetsInlineLimit,
		},
	}
}

// Load reads waypoint.json from dir and applies environment overrides.
func Load(dir string) (*Config, error) {
	cfg, err := LoadFile(filepath.Join(dir, ConfigFileName))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFile reads configuration from path without environment overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path))
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E120").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the project directory.
func (c *Config) Dir() string {
	if c.configPath == "" {
		wd, _ := os.Getwd()
		return wd
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills fields a partial waypoint.json left empty.
func (c *Config) applyDefaults() {
	d := New()
	if c.Mode == "" {
		c.Mode = d.Mode
	}
	if c.Base == "" {
		c.Base = d.Base
	}
	if c.Paths.Routes == "" {
		c.Paths.Routes = d.Paths.Routes
	}
	if c.Paths.Modules == "" {
		c.Paths.Modules = d.Paths.Modules
	}
	if c.Paths.Source == "" {
		c.Paths.Source = d.Paths.Source
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = d.Dev.Port
	}
	if c.Dev.Host == "" {
		c.Dev.Host = d.Dev.Host
	}
	if c.Build.Output == "" {
		c.Build.Output = d.Build.Output
	}
	if c.Build.EntryName == "" {
		c.Build.EntryName = d.Build.EntryName
	}
	if c.Build.VendorUnit == "" {
		c.Build.VendorUnit = d.Build.VendorUnit
	}
	if c.Build.AssetCategories == nil {
		c.Build.AssetCategories = d.Build.AssetCategories
	}
	if c.Build.ChunkSizeWarningLimit == 0 {
		c.Build.ChunkSizeWarningLimit = d.Build.ChunkSizeWarningLimit
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return errors.New("E122").
			WithDetail("Port must be between 0 and 65535, got " + strconv.Itoa(c.Dev.Port))
	}
	if c.Mode != ModeDevelopment && c.Mode != ModeProduction {
		return errors.New("E120").
			WithDetailf("mode must be %q or %q, got %q", ModeDevelopment, ModeProduction, c.Mode)
	}
	if !strings.HasPrefix(c.Base, "/") && !strings.Contains(c.Base, "://") {
		return errors.New("E120").
			WithDetailf("base %q must be an absolute path or URL", c.Base)
	}
	if c.Build.ChunkSizeWarningLimit < 0 || c.Build.AssetsInlineLimit < 0 {
		return errors.New("E120").WithDetail("size limits must not be negative")
	}

	seen := make(map[string]string)
	for _, unit := range c.ManualChunkNames() {
		if unit == c.Build.EntryName || unit == c.Build.VendorUnit {
			return errors.New("E301").
				WithDetailf("manual chunk %q collides with a reserved unit name", unit)
		}
		for _, mod := range c.Build.ManualChunks[unit] {
			if prev, ok := seen[mod]; ok {
				return errors.New("E301").
					WithDetailf("module %q is listed in both %q and %q", mod, prev, unit)
			}
			seen[mod] = unit
		}
	}
	return nil
}

// ManualChunkNames returns manual unit names in sorted order.
func (c *Config) ManualChunkNames() []string {
	names := make([]string, 0, len(c.Build.ManualChunks))
	for name := range c.Build.ManualChunks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BasePath returns the public base path for the current mode. Development
// always serves from "/".
func (c *Config) BasePath() string {
	if c.Mode == ModeDevelopment {
		return "/"
	}
	return c.Base
}

// DevAddress returns the listen address for the preview server.
func (c *Config) DevAddress() string {
	return c.Dev.Host + ":" + strconv.Itoa(c.Dev.Port)
}

// DevURL returns the preview server URL.
func (c *Config) DevURL() string {
	return "http://" + c.DevAddress() + c.BasePath()
}

// OutputPath returns the absolute path to the build output directory.
func (c *Config) OutputPath() string {
	return c.resolve(c.Build.Output)
}

// RoutesPath returns the absolute path to the route table.
func (c *Config) RoutesPath() string {
	return c.resolve(c.Paths.Routes)
}

// ModulesPath returns the absolute path to the module manifest.
func (c *Config) ModulesPath() string {
	return c.resolve(c.Paths.Modules)
}

// SourcePath returns the absolute path that module sources are read from.
func (c *Config) SourcePath() string {
	return c.resolve(c.Paths.Source)
}

// WatchPaths returns absolute paths for the watcher.
func (c *Config) WatchPaths() []string {
	paths := make([]string, 0, len(c.Dev.Watch))
	for _, p := range c.Dev.Watch {
		paths = append(paths, c.resolve(p))
	}
	return paths
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a config file exists in dir.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up from startDir to the directory holding
// waypoint.json.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E141").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current project.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}
	return Load(root)
}
