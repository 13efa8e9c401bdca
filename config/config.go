package config

import (
	"errors"
	"io/fs"

	"github.com/BurntSushi/toml"
)

type Config struct {
	UserRole string `toml:"UserRole"` // substituted for {{user}}
	SysDir   string `toml:"SysDir"`   // directory scanned for card pngs
	LogFile  string `toml:"LogFile"`
	LogLevel string `toml:"LogLevel"`
	// storage
	DBPATH       string `toml:"DBPATH"`
	CacheEnabled bool   `toml:"CacheEnabled"`
	// export
	DefaultImageWidth  int    `toml:"DefaultImageWidth"`
	DefaultImageHeight int    `toml:"DefaultImageHeight"`
	DefaultImageColor  string `toml:"DefaultImageColor"`
	CreatorName        string `toml:"CreatorName"` // written to the card's creator field
}

// LoadConfig reads fn (config.toml when empty). A missing file yields the
// defaults.
func LoadConfig(fn string) (*Config, error) {
	if fn == "" {
		fn = "config.toml"
	}
	config := &Config{}
	_, err := toml.DecodeFile(fn, &config)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	config.fillDefaults()
	return config, nil
}

// if any value is empty fill with default
func (c *Config) fillDefaults() {
	if c.UserRole == "" {
		c.UserRole = "YOU"
	}
	if c.SysDir == "" {
		c.SysDir = "."
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.DefaultImageWidth <= 0 {
		c.DefaultImageWidth = 400
	}
	if c.DefaultImageHeight <= 0 {
		c.DefaultImageHeight = 600
	}
	if c.DefaultImageColor == "" {
		c.DefaultImageColor = "#282a36"
	}
	if c.CreatorName == "" {
		c.CreatorName = "charapng"
	}
}
