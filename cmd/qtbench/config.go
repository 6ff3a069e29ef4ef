package main

import (
	"runtime"

	"github.com/BurntSushi/toml"
	perrors "github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

var errConfig = perrors.Normalize("invalid config: %s", perrors.RFCCodeText("QT:config:ErrConfig"))

const (
	defaultPoints   = 10000000
	defaultCapacity = 4
	defaultQueries  = 100
)

// Config is the benchmark configuration. Values come from the optional TOML
// file first and are overridden by flags that were set explicitly.
type Config struct {
	Points       int    `toml:"points" json:"points"`
	Threads      int    `toml:"threads" json:"threads"`
	LockFree     bool   `toml:"lockfree" json:"lockfree"`
	Capacity     int    `toml:"capacity" json:"capacity"`
	QueryThreads int    `toml:"query-threads" json:"query-threads"`
	Queries      int    `toml:"queries" json:"queries"`
	PNG          string `toml:"png" json:"png"`
	MetricsAddr  string `toml:"metrics-addr" json:"metrics-addr"`

	Log log.Config `toml:"log" json:"log"`
}

// NewConfig returns a config holding the defaults.
func NewConfig() *Config {
	return &Config{
		Points:   defaultPoints,
		Threads:  runtime.GOMAXPROCS(0),
		LockFree: true,
		Capacity: defaultCapacity,
		Queries:  defaultQueries,
		Log:      log.Config{Level: "info", Format: "text"},
	}
}

// Parse loads the config file named by the config flag, then applies flags.
func (c *Config) Parse(flagSet *pflag.FlagSet) error {
	if configFile, _ := flagSet.GetString("config"); configFile != "" {
		meta, err := configFromFile(c, configFile)
		if err != nil {
			return err
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return errConfig.GenWithStackByArgs("undefined item " + undecoded[0].String())
		}
	}

	if flagSet.Changed("points") {
		c.Points, _ = flagSet.GetInt("points")
	}
	if flagSet.Changed("threads") {
		c.Threads, _ = flagSet.GetInt("threads")
	}
	if flagSet.Changed("lockfree") {
		c.LockFree, _ = flagSet.GetBool("lockfree")
	}
	if flagSet.Changed("capacity") {
		c.Capacity, _ = flagSet.GetInt("capacity")
	}
	if flagSet.Changed("query-threads") {
		c.QueryThreads, _ = flagSet.GetInt("query-threads")
	}
	if flagSet.Changed("queries") {
		c.Queries, _ = flagSet.GetInt("queries")
	}
	if flagSet.Changed("png") {
		c.PNG, _ = flagSet.GetString("png")
	}
	if flagSet.Changed("metrics-addr") {
		c.MetricsAddr, _ = flagSet.GetString("metrics-addr")
	}
	if flagSet.Changed("log-level") {
		c.Log.Level, _ = flagSet.GetString("log-level")
	}
	return c.Validate()
}

// Validate checks that the config describes a runnable benchmark.
func (c *Config) Validate() error {
	switch {
	case c.Points <= 0:
		return errConfig.GenWithStackByArgs("points must be positive")
	case c.Threads <= 0:
		return errConfig.GenWithStackByArgs("threads must be positive")
	case c.Capacity <= 0:
		return errConfig.GenWithStackByArgs("capacity must be positive")
	case c.QueryThreads < 0:
		return errConfig.GenWithStackByArgs("query-threads must not be negative")
	case c.Queries < 0:
		return errConfig.GenWithStackByArgs("queries must not be negative")
	}
	return nil
}

func configFromFile(c interface{}, path string) (*toml.MetaData, error) {
	meta, err := toml.DecodeFile(path, c)
	return &meta, errors.WithStack(err)
}
