// Package config loads and saves the repository's config.toml: the
// namespace uid/gid maps and the list of configured remotes.
package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"

	apperr "github.com/utkarsh5026/sourcevault/pkg/common/err"
	"github.com/utkarsh5026/sourcevault/pkg/common/fileops"
	"github.com/utkarsh5026/sourcevault/pkg/namespace"
	"github.com/utkarsh5026/sourcevault/pkg/repository/scpath"
)

const pkgName = "config"

// Remote is one entry of the [[remotes]] array: a named push/pull target,
// either a local filesystem path or an SSH "user@host:/path" spec.
type Remote struct {
	Name string `toml:"name"`
	URL  string `toml:"url"`
}

// Config is the full contents of a repository's config.toml.
type Config struct {
	Namespace namespace.Config `toml:"namespace"`
	Remotes   []Remote         `toml:"remotes"`
}

// Default builds the config written by init(path): the namespace mapping is
// seeded from the current process's /proc/self/{uid,gid}_map, falling back
// to identity when unreadable, and no remotes are configured.
func Default() Config {
	return Config{Namespace: namespace.CurrentConfig()}
}

// Load reads and parses config.toml from repo.
func Load(repo scpath.RepositoryPath) (Config, error) {
	data, err := os.ReadFile(repo.ConfigPath().String())
	if err != nil {
		return Config{}, apperr.New(pkgName, apperr.CodeRemoteConfigError, "load", repo.ConfigPath().String(), err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, apperr.New(pkgName, apperr.CodeRemoteConfigError, "parse", repo.ConfigPath().String(), err)
	}
	return cfg, nil
}

// Save serializes cfg and writes it to repo's config.toml.
func Save(repo scpath.RepositoryPath, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return apperr.New(pkgName, apperr.CodeRemoteConfigError, "marshal", "", err)
	}
	return fileops.WriteConfig(repo.ConfigPath(), data)
}

// FindRemote looks up a configured remote by name.
func (c Config) FindRemote(name string) (Remote, error) {
	for _, r := range c.Remotes {
		if r.Name == name {
			return r, nil
		}
	}
	return Remote{}, apperr.New(pkgName, apperr.CodeRemoteNotFound, "find_remote", name, nil)
}

// WithRemote returns a copy of c with remote upserted by name.
func (c Config) WithRemote(remote Remote) Config {
	for i, r := range c.Remotes {
		if r.Name == remote.Name {
			c.Remotes[i] = remote
			return c
		}
	}
	c.Remotes = append(c.Remotes, remote)
	return c
}
