package config

import (
	"time"

	"github.com/fystack/solana-studio/pkg/common/constant"
)

type Config struct {
	Environment string       `yaml:"environment" validate:"required,oneof=production development"`
	Network     NetworkCfg   `yaml:"network" validate:"required"`
	RPC         RPCCfg       `yaml:"rpc"`
	Validator   ValidatorCfg `yaml:"validator" validate:"required"`
	Store       StoreCfg     `yaml:"store"`
	NATS        NATSCfg      `yaml:"nats"`
	Log         LogCfg       `yaml:"log"`
}

// NetworkCfg selects the cluster the RPC facade talks to on startup.
type NetworkCfg struct {
	Name       string `yaml:"name" validate:"required,oneof=mainnet devnet testnet localnet custom"`
	URL        string `yaml:"url" validate:"omitempty,url"`
	Commitment string `yaml:"commitment" validate:"omitempty,oneof=processed confirmed finalized"`
	// Auth carries an API key for hosted RPC providers.
	Auth *AuthCfg `yaml:"auth"`
}

type AuthCfg struct {
	Type  string `yaml:"type" validate:"required,oneof=header query"`
	Key   string `yaml:"key" validate:"required"`
	Value string `yaml:"value"`
}

type RPCCfg struct {
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"max_retries" validate:"gte=0"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	Throttle        ThrottleCfg   `yaml:"throttle"`
	ConfirmTimeout  time.Duration `yaml:"confirm_timeout"`
	ConfirmInterval time.Duration `yaml:"confirm_interval"`
}

type ThrottleCfg struct {
	RPS   int `yaml:"rps" validate:"gte=0"`
	Burst int `yaml:"burst" validate:"gte=0"`
}

type ValidatorCfg struct {
	Binary       string   `yaml:"binary" validate:"required"`
	Args         []string `yaml:"args"`
	OutputBuffer int      `yaml:"output_buffer" validate:"gte=0"`
}

// StoreCfg points at the badger directory used for account snapshots.
// An empty directory keeps the registry purely in memory.
type StoreCfg struct {
	Directory string `yaml:"directory"`
	Prefix    string `yaml:"prefix"`
}

type NATSCfg struct {
	URL     string `yaml:"url" validate:"omitempty,url"`
	Subject string `yaml:"subject"`
}

type LogCfg struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Default returns a development config targeting a local surfpool instance.
func Default() Config {
	cfg := Config{
		Environment: constant.EnvDevelopment,
		Network:     NetworkCfg{Name: "localnet"},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Environment == "" {
		c.Environment = constant.EnvDevelopment
	}
	if c.Network.Name == "" {
		c.Network.Name = "localnet"
	}
	if c.RPC.Timeout == 0 {
		c.RPC.Timeout = 30 * time.Second
	}
	if c.RPC.RetryDelay == 0 {
		c.RPC.RetryDelay = 500 * time.Millisecond
	}
	if c.RPC.Throttle.RPS == 0 {
		c.RPC.Throttle.RPS = 10
	}
	if c.RPC.Throttle.Burst == 0 {
		c.RPC.Throttle.Burst = 20
	}
	if c.RPC.ConfirmTimeout == 0 {
		c.RPC.ConfirmTimeout = 30 * time.Second
	}
	if c.RPC.ConfirmInterval == 0 {
		c.RPC.ConfirmInterval = 500 * time.Millisecond
	}
	if c.Validator.Binary == "" {
		c.Validator.Binary = constant.DefaultValidatorBinary
	}
	if len(c.Validator.Args) == 0 {
		c.Validator.Args = append([]string(nil), constant.DefaultValidatorArgs...)
	}
	if c.Validator.OutputBuffer == 0 {
		c.Validator.OutputBuffer = 1024
	}
	if c.Store.Prefix == "" {
		c.Store.Prefix = "studio"
	}
	if c.NATS.Subject == "" {
		c.NATS.Subject = "studio.events"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
