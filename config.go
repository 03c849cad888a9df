package arbiter

import (
	"context"
	"fmt"

	"github.com/viant/afs"
	"github.com/viant/arbiter/model/task"
	"github.com/viant/arbiter/policy"
	"github.com/viant/arbiter/service/scheduler"
	"gopkg.in/yaml.v3"
)

// Config is a serialisable representation of the core configuration. It can
// be populated from JSON or YAML. The zero-value is useful – all nested
// fields inherit their package defaults.

type Config struct {
	Scheduler  scheduler.Config `json:"scheduler" yaml:"scheduler"`
	Task       TaskConfig       `json:"task" yaml:"task"`
	Checkpoint CheckpointConfig `json:"checkpoint" yaml:"checkpoint"`
	Policy     *policy.Config   `json:"policy,omitempty" yaml:"policy,omitempty"`
}

type TaskConfig struct {
	// MaxSyscallNum sizes every task's syscall counter table.
	MaxSyscallNum int `json:"maxSyscallNum" yaml:"maxSyscallNum"`
}

type CheckpointConfig struct {
	// BaseURL selects the afs-backed checkpoint store; empty keeps the
	// in-memory store.
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
}

// DefaultConfig returns a Config populated with the same default values the
// constructors would apply. Callers may modify the returned struct before
// passing it to New via WithConfig.
func DefaultConfig() *Config {
	return &Config{
		Scheduler: scheduler.DefaultConfig(),
		Task:      TaskConfig{MaxSyscallNum: task.DefaultMaxSyscallNum},
	}
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Scheduler.Quantum < 0 {
		return fmt.Errorf("scheduler.quantum must be >= 0")
	}
	if c.Task.MaxSyscallNum < 0 {
		return fmt.Errorf("task.maxSyscallNum must be >= 0")
	}
	return nil
}

// NewConfigFromURL loads a YAML config from any afs-supported location
// (file, mem, s3...).  Absent fields keep their package defaults.
func NewConfigFromURL(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", URL, err)
	}
	ret := DefaultConfig()
	if err := yaml.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", URL, err)
	}
	if err := ret.Validate(); err != nil {
		return nil, err
	}
	return ret, nil
}
