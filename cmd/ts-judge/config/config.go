package config

import (
	"os"
	"runtime"
	"time"

	"github.com/koding/multiconfig"
)

// Config defines ts-judge server configuration
type Config struct {
	// runner
	Parallelism      int           `flagUsage:"control the # of concurrent runs (default equal to number of cpu)"`
	TimeLimit        time.Duration `flagUsage:"specifies time limit for each test case invocation" default:"2s"`
	EvalTimeLimit    time.Duration `flagUsage:"specifies time limit for loading a snippet" default:"5s"`
	MaxCallStackSize int           `flagUsage:"specifies max call stack size of the script runtime" default:"10000"`
	OutputLimit      int           `flagUsage:"specifies console output bytes kept for each run" default:"65536"`
	Target           string        `flagUsage:"specifies ECMAScript target of the transpiled code" default:"es2017"`
	Resolver         string        `flagUsage:"specifies function resolver (default / last)" default:"default"`

	// problems & progress
	ProblemDir    string `flagUsage:"specifies directory of problem yaml files (builtin problems if empty)"`
	RedisAddr     string `flagUsage:"specifies redis address to store progress (in memory if empty)"`
	RedisPassword string `flagUsage:"specifies redis password"`
	RedisDB       int    `flagUsage:"specifies redis db"`
	RedisPrefix   string `flagUsage:"specifies redis key prefix" default:"tsjudge:progress:"`

	// server config
	HTTPAddr      string `flagUsage:"specifies the http binding address" default:":5050"`
	MonitorAddr   string `flagUsage:"specifies the metrics binding address" default:":5052"`
	AuthToken     string `flagUsage:"bearer token auth for REST"`
	EnableDebug   bool   `flagUsage:"enable debug endpoint"`
	EnableMetrics bool   `flagUsage:"enable promethus metrics endpoint"`

	// logger config
	Release bool `flagUsage:"release level of logs"`
	Silent  bool `flagUsage:"do not print logs"`

	// show version and exit
	Version bool `flagUsage:"show version and exit"`
}

// Load loads config from flag & environment variables
func (c *Config) Load() error {
	cl := multiconfig.MultiLoader(
		&multiconfig.TagLoader{},
		&multiconfig.EnvironmentLoader{
			Prefix:    "TJ",
			CamelCase: true,
		},
		&multiconfig.FlagLoader{
			CamelCase: true,
			EnvPrefix: "TJ",
		},
	)
	if os.Getpid() == 1 {
		c.Release = true
	}
	if err := cl.Load(c); err != nil {
		return err
	}
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.NumCPU()
	}
	return nil
}
