package repo

import (
	"fmt"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// configPath returns the .git/config location.
func (r *Repo) configPath() string {
	return filepath.Join(r.GitDir, "config")
}

// WriteCloneConfig records the core section and the origin remote in
// .git/config, the way a fresh clone does.
func (r *Repo) WriteCloneConfig(remoteURL string) error {
	cfg := ini.Empty()

	core, err := cfg.NewSection("core")
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	core.Key("repositoryformatversion").SetValue("0")
	core.Key("filemode").SetValue("true")
	core.Key("bare").SetValue("false")

	origin, err := cfg.NewSection(`remote "origin"`)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	origin.Key("url").SetValue(remoteURL)
	origin.Key("fetch").SetValue("+refs/heads/*:refs/remotes/origin/*")

	if err := cfg.SaveTo(r.configPath()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// RemoteURL reads the url of a named remote from .git/config. A missing
// config or remote returns an empty string; the core itself never requires
// a config file.
func (r *Repo) RemoteURL(name string) (string, error) {
	cfg, err := ini.Load(r.configPath())
	if err != nil {
		return "", nil
	}
	section := cfg.Section(fmt.Sprintf("remote %q", name))
	return section.Key("url").String(), nil
}
