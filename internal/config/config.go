// Package config loads roost settings from the application config file and
// ROOST_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"
)

// Config keys.
const (
	KeyRouteFiles    = "router.routeFiles"
	KeyCompiledFile  = "router.compiledFile"
	KeyWatchInterval = "router.watchInterval"
)

// Defaults, relative to the project root.
const (
	DefaultConfigFile    = "config/app.yaml"
	DefaultRouteFile     = "config/routes.yaml"
	DefaultCompiledFile  = "config/routes.compiled.yaml"
	DefaultWatchInterval = time.Second
)

// ErrNoRouteFiles is returned when no route file can be found.
var ErrNoRouteFiles = errors.New("no route files configured")

// Options locate the project and its config file.
type Options struct {
	ProjectRoot string // Defaults to the working directory
	ConfigFile  string // Defaults to <root>/config/app.yaml when it exists
}

// Config holds the resolved router settings.
type Config struct {
	ProjectRoot   string
	ConfigFile    string // Empty when no config file was read
	RouteFiles    []string
	CompiledFile  string
	WatchInterval time.Duration
}

// Load reads the config file (if any), applies ROOST_* environment
// overrides such as ROOST_ROUTER_COMPILEDFILE, and resolves route file
// patterns to absolute paths.
func Load(opts Options) (*Config, error) {
	root := opts.ProjectRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("cannot determine working directory: %w", err)
		}
		root = wd
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetDefault(KeyRouteFiles, []string{DefaultRouteFile})
	v.SetDefault(KeyCompiledFile, DefaultCompiledFile)
	v.SetDefault(KeyWatchInterval, DefaultWatchInterval)

	v.SetEnvPrefix("ROOST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{ProjectRoot: root}

	configFile := opts.ConfigFile
	explicit := configFile != ""
	if !explicit {
		configFile = DefaultConfigFile
	}
	configFile = resolve(root, configFile)

	if _, err := os.Stat(configFile); err == nil {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", configFile, err)
		}
		cfg.ConfigFile = configFile
	} else if explicit {
		return nil, fmt.Errorf("config file not found: %s", configFile)
	}

	cfg.WatchInterval = v.GetDuration(KeyWatchInterval)
	if cfg.WatchInterval <= 0 {
		return nil, fmt.Errorf("%s must be positive, got %s", KeyWatchInterval, v.GetString(KeyWatchInterval))
	}

	cfg.CompiledFile = resolve(root, v.GetString(KeyCompiledFile))

	patterns := v.GetStringSlice(KeyRouteFiles)
	usingDefault := !v.IsSet(KeyRouteFiles) || slices.Equal(patterns, []string{DefaultRouteFile})
	cfg.RouteFiles, err = ResolveRouteFiles(root, patterns)
	if err != nil {
		if usingDefault && errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: create %s or set %s in %s",
				ErrNoRouteFiles, resolve(root, DefaultRouteFile), KeyRouteFiles, DefaultConfigFile)
		}
		return nil, err
	}

	return cfg, nil
}

// ResolveRouteFiles expands patterns relative to root. Entries containing
// glob characters are expanded with doublestar (so "routes/**/*.yaml"
// works) and must match at least one file; plain entries must exist.
func ResolveRouteFiles(root string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, ErrNoRouteFiles
	}

	var files []string
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, pattern := range patterns {
		abs := resolve(root, pattern)

		if !containsGlob(pattern) {
			if _, err := os.Stat(abs); err != nil {
				return nil, fmt.Errorf("route file not found: %s: %w", abs, err)
			}
			add(abs)
			continue
		}

		matches, err := doublestar.FilepathGlob(abs, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no route files match pattern: %s", pattern)
		}
		for _, m := range matches {
			add(m)
		}
	}

	return files, nil
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(root, path)
}

func containsGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}
