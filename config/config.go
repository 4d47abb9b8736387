// Package config holds the validator's tunable parameters, loaded from a
// TOML file and sanitized in the style of txpool.Config.sanitize in the
// teacher repository: unreasonable values are clamped to a safe default and
// the clamp is logged, rather than rejected outright.
package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/log"
)

// LifecycleMode gates the strictness of transaction admission (spec section
// 6 "Lifecycle modes exposed at the configuration boundary").
type LifecycleMode string

const (
	// Ephemeral enforces full delegation/writable invariants (spec 4.4).
	Ephemeral LifecycleMode = "ephemeral"
	// Replica rejects every write; transactions authored by the validator
	// itself are rejected too, with no bookkeeping exception.
	Replica LifecycleMode = "replica"
	// ProgramsReplica mirrors only program (executable) accounts; it is the
	// default mode, matching the source's own default.
	ProgramsReplica LifecycleMode = "programs-replica"
	// Offline disables all base-chain network activity; fetch, monitor and
	// commit dispatch are no-ops.
	Offline LifecycleMode = "offline"
)

// Config is the complete set of tunables for the account lifecycle engine.
type Config struct {
	// Lifecycle selects the admission strictness mode.
	Lifecycle LifecycleMode

	// MonitorShardCount is N, the number of refreshing update-monitor
	// shards (spec 4.2).
	MonitorShardCount int
	// MonitorRefreshInterval is how often a shard is retired and replaced
	// with a freshly connected clone.
	MonitorRefreshInterval time.Duration
	// MonitorRequestChannelCapacity bounds the subscribe/unsubscribe
	// request channel (spec: "bounded channel (capacity 1024)").
	MonitorRequestChannelCapacity int

	// CloneStripeCount bounds the number of striped per-pubkey mutexes used
	// to serialize cloning (Open Question resolution #4 in SPEC_FULL.md).
	CloneStripeCount int
	// CloneSnapshotCacheSize bounds the fetcher's LRU of recent snapshots.
	CloneSnapshotCacheSize int

	// CommitConfirmPollInterval and CommitConfirmMaxPolls together form the
	// bounded retry policy from spec section 7 (defaults to ~20s: 40 * 500ms).
	CommitConfirmPollInterval time.Duration
	CommitConfirmMaxPolls     int

	// CommitDelegatedTickInterval drives the voluntary commit-delegated
	// ticker (spec 4.5, last paragraph).
	CommitDelegatedTickInterval time.Duration

	// SlotTickInterval drives the slot ticker (C6).
	SlotTickInterval time.Duration

	// LegacyBPFLoaderCompat, when set, makes the fetcher skip the
	// program-data lookup for executable accounts. No legacy program shape
	// is synthesized: such executables carry no program-data account, so the
	// cloner refuses them with errs.ErrCloneUnavailable.
	LegacyBPFLoaderCompat bool

	// DelegationProgramID and UpgradeableLoaderProgramID are the base-chain
	// program ids used for PDA derivation and executable-account dumping.
	DelegationProgramID       [32]byte
	UpgradeableLoaderProgramID [32]byte

	// ClockSysvarPubkey is the base-chain clock sysvar address every
	// monitor shard subscribes to, used to learn the chain's current slot
	// locally for first_subscribed_slot bookkeeping (spec 4.2).
	ClockSysvarPubkey [32]byte

	// BaseChainRPCEndpoint and BaseChainWSEndpoint address the base-chain
	// JSON-RPC HTTP and websocket endpoints used to construct the fetcher's
	// reader, the committer's sender, and the monitor's subscriber factory.
	BaseChainRPCEndpoint string
	BaseChainWSEndpoint  string
}

// DefaultConfig mirrors the source's own defaults.
var DefaultConfig = Config{
	Lifecycle: ProgramsReplica,

	MonitorShardCount:             4,
	MonitorRefreshInterval:        30 * time.Minute,
	MonitorRequestChannelCapacity: 1024,

	CloneStripeCount:       256,
	CloneSnapshotCacheSize: 4096,

	CommitConfirmPollInterval: 500 * time.Millisecond,
	CommitConfirmMaxPolls:     40,

	CommitDelegatedTickInterval: 5 * time.Second,
	SlotTickInterval:            50 * time.Millisecond,

	LegacyBPFLoaderCompat: false,

	BaseChainRPCEndpoint: "http://127.0.0.1:8899",
	BaseChainWSEndpoint:  "ws://127.0.0.1:8900",
}

// Sanitize clamps unreasonable values to safe defaults, logging every clamp,
// matching txpool.Config.sanitize's behavior in the teacher repository.
func (c *Config) Sanitize() Config {
	conf := *c
	if conf.MonitorShardCount < 1 {
		log.Warn("Sanitizing invalid monitor shard count", "provided", conf.MonitorShardCount, "updated", DefaultConfig.MonitorShardCount)
		conf.MonitorShardCount = DefaultConfig.MonitorShardCount
	}
	if conf.MonitorRefreshInterval < time.Second {
		log.Warn("Sanitizing invalid monitor refresh interval", "provided", conf.MonitorRefreshInterval, "updated", DefaultConfig.MonitorRefreshInterval)
		conf.MonitorRefreshInterval = DefaultConfig.MonitorRefreshInterval
	}
	if conf.MonitorRequestChannelCapacity < 1 {
		log.Warn("Sanitizing invalid monitor request channel capacity", "provided", conf.MonitorRequestChannelCapacity, "updated", DefaultConfig.MonitorRequestChannelCapacity)
		conf.MonitorRequestChannelCapacity = DefaultConfig.MonitorRequestChannelCapacity
	}
	if conf.CloneStripeCount < 1 {
		log.Warn("Sanitizing invalid clone stripe count", "provided", conf.CloneStripeCount, "updated", DefaultConfig.CloneStripeCount)
		conf.CloneStripeCount = DefaultConfig.CloneStripeCount
	}
	if conf.CloneSnapshotCacheSize < 1 {
		log.Warn("Sanitizing invalid clone snapshot cache size", "provided", conf.CloneSnapshotCacheSize, "updated", DefaultConfig.CloneSnapshotCacheSize)
		conf.CloneSnapshotCacheSize = DefaultConfig.CloneSnapshotCacheSize
	}
	if conf.CommitConfirmPollInterval < 10*time.Millisecond {
		log.Warn("Sanitizing invalid commit confirm poll interval", "provided", conf.CommitConfirmPollInterval, "updated", DefaultConfig.CommitConfirmPollInterval)
		conf.CommitConfirmPollInterval = DefaultConfig.CommitConfirmPollInterval
	}
	if conf.CommitConfirmMaxPolls < 1 {
		log.Warn("Sanitizing invalid commit confirm max polls", "provided", conf.CommitConfirmMaxPolls, "updated", DefaultConfig.CommitConfirmMaxPolls)
		conf.CommitConfirmMaxPolls = DefaultConfig.CommitConfirmMaxPolls
	}
	if conf.CommitDelegatedTickInterval < time.Second {
		log.Warn("Sanitizing invalid commit-delegated tick interval", "provided", conf.CommitDelegatedTickInterval, "updated", DefaultConfig.CommitDelegatedTickInterval)
		conf.CommitDelegatedTickInterval = DefaultConfig.CommitDelegatedTickInterval
	}
	if conf.SlotTickInterval < time.Millisecond {
		log.Warn("Sanitizing invalid slot tick interval", "provided", conf.SlotTickInterval, "updated", DefaultConfig.SlotTickInterval)
		conf.SlotTickInterval = DefaultConfig.SlotTickInterval
	}
	if conf.BaseChainRPCEndpoint == "" {
		log.Warn("Sanitizing empty base-chain RPC endpoint", "updated", DefaultConfig.BaseChainRPCEndpoint)
		conf.BaseChainRPCEndpoint = DefaultConfig.BaseChainRPCEndpoint
	}
	if conf.BaseChainWSEndpoint == "" {
		log.Warn("Sanitizing empty base-chain websocket endpoint", "updated", DefaultConfig.BaseChainWSEndpoint)
		conf.BaseChainWSEndpoint = DefaultConfig.BaseChainWSEndpoint
	}
	switch conf.Lifecycle {
	case Ephemeral, Replica, ProgramsReplica, Offline:
	default:
		log.Warn("Sanitizing invalid lifecycle mode", "provided", conf.Lifecycle, "updated", DefaultConfig.Lifecycle)
		conf.Lifecycle = DefaultConfig.Lifecycle
	}
	return conf
}

// Load reads and sanitizes a Config from a TOML file at path.
func Load(path string) (Config, error) {
	conf := DefaultConfig
	if _, err := toml.DecodeFile(path, &conf); err != nil {
		return Config{}, err
	}
	return conf.Sanitize(), nil
}
