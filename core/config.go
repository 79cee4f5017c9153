package core

import (
	"fmt"
	"os"
	"time"

	yaml "github.com/goccy/go-yaml"
	stdlog "github.com/gonfd/gonfd/std/log"
)

// Config is the top-level configuration tree, loaded from a single YAML
// file at startup (cmd/gonfd) and otherwise treated as read-only by the
// rest of the forwarder.
type Config struct {
	Core   CoreConfig   `yaml:"core"`
	Faces  FacesConfig  `yaml:"faces"`
	Tables TablesConfig `yaml:"tables"`
	Fw     FwConfig     `yaml:"fw"`
}

// CoreConfig holds process-level settings. BaseDir and the profile paths
// are populated from CLI flags, not the YAML file (see cmd/gonfd).
type CoreConfig struct {
	BaseDir      string `yaml:"-"`
	LogLevel     string `yaml:"log_level"`
	CpuProfile   string `yaml:"-"`
	MemProfile   string `yaml:"-"`
	BlockProfile string `yaml:"-"`
}

// FacesConfig groups per-transport defaults shared across all faces of a
// given kind.
type FacesConfig struct {
	Udp                UdpConfig           `yaml:"udp"`
	Tcp                TcpConfig           `yaml:"tcp"`
	Ethernet           EthernetConfig      `yaml:"ether"`
	Fragmentation      FragmentationConfig `yaml:"fragmentation"`
	LockThreadsToCores bool                `yaml:"lock_threads_to_cores"`
}

// UdpConfig configures both unicast and multicast UDP faces.
type UdpConfig struct {
	DefaultMtu      uint16        `yaml:"mtu"`
	PortUnicast     uint16        `yaml:"port_unicast"`
	PortMulticast   uint16        `yaml:"port_multicast"`
	MulticastAddr   string        `yaml:"multicast_address"`
	MulticastAddr6  string        `yaml:"multicast_address_v6"`
	EnableMulticast bool          `yaml:"enable_multicast"`
	Lifetime        time.Duration `yaml:"lifetime"`
}

// TcpConfig configures the TCP listener and the unicast faces it accepts.
type TcpConfig struct {
	Enable     bool   `yaml:"enable"`
	DefaultMtu uint16 `yaml:"mtu"`
	Port       uint16 `yaml:"port"`
}

// EthernetConfig configures raw-Ethernet faces, a link type this
// forwarder always runs a HopByHopFragmenter over (spec.md §4.3).
// Interfaces names which NICs to bring a raw-socket Listener up on; an
// empty list means Ethernet faces are disabled (they need CAP_NET_RAW).
type EthernetConfig struct {
	Interfaces []string `yaml:"interfaces"`
	DefaultMtu uint16   `yaml:"mtu"`
	Ethertype  uint16   `yaml:"ethertype"`
	Multicast  string   `yaml:"multicast_address"`
}

// FragmentationConfig tunes the HopByHopFragmenter's sliding window
// (spec.md §9 Open Question: exposed as config rather than hardcoded).
type FragmentationConfig struct {
	Window             int           `yaml:"window"`
	MaxRetransmissions int           `yaml:"max_retransmissions"`
	RetransmitTimeout  time.Duration `yaml:"retransmit_timeout"`
	IdleTimeout        time.Duration `yaml:"idle_timeout"`
}

// TablesConfig groups PIT and CS sizing/lifetime defaults.
type TablesConfig struct {
	Pit PitConfig `yaml:"pit"`
	Cs  CsConfig  `yaml:"cs"`
}

// PitConfig configures the PIT's fallback Interest lifetime and the
// period of its expiry sweep (spec.md §4.5/§5's "periodic PIT cleanup").
type PitConfig struct {
	DefaultLifetime time.Duration `yaml:"default_lifetime"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// CsConfig configures the Content Store's LRU capacity.
type CsConfig struct {
	Capacity int `yaml:"capacity"`
}

// FwConfig configures the MessageProcessor / dispatch layer.
type FwConfig struct {
	DefaultStrategy string `yaml:"default_strategy"`
	Threads         int    `yaml:"threads"`
	QueueSize       int    `yaml:"queue_size"`
	StoreInCache    bool   `yaml:"store_in_cache"`
	ServeFromCache  bool   `yaml:"serve_from_cache"`
}

// DefaultConfig returns the configuration a fresh forwarder starts from
// before any YAML file is read.
func DefaultConfig() *Config {
	return &Config{
		Core: CoreConfig{LogLevel: "INFO"},
		Faces: FacesConfig{
			Udp: UdpConfig{
				DefaultMtu:      1400,
				PortUnicast:     6363,
				PortMulticast:   56363,
				MulticastAddr:   "224.0.23.170",
				MulticastAddr6:  "ff02::1234",
				EnableMulticast: true,
				Lifetime:        600 * time.Second,
			},
			Tcp: TcpConfig{Enable: true, DefaultMtu: 1400, Port: 6363},
			Ethernet: EthernetConfig{
				DefaultMtu: 1500,
				Ethertype:  0x0801,
				Multicast:  "01:00:5e:00:17:aa",
			},
			Fragmentation: FragmentationConfig{
				Window:             16,
				MaxRetransmissions: 8,
				RetransmitTimeout:  200 * time.Millisecond,
				IdleTimeout:        5 * time.Second,
			},
		},
		Tables: TablesConfig{
			Pit: PitConfig{DefaultLifetime: 4 * time.Second, CleanupInterval: time.Second},
			Cs:  CsConfig{Capacity: 1024},
		},
		Fw: FwConfig{
			DefaultStrategy: "/localhost/nfd/strategy/multicast",
			Threads:         1,
			QueueSize:       1024,
			StoreInCache:    true,
			ServeFromCache:  true,
		},
	}
}

// C is the process-wide configuration. cmd/gonfd replaces its contents via
// LoadConfig before starting the forwarder; packages that need a setting
// read it directly off C rather than threading a Config through every call.
var C = DefaultConfig()

// LoadConfig reads a YAML file into dst, then applies dst.Core.LogLevel to
// Log. BaseDir and the profiling paths are left untouched, since they come
// from CLI flags rather than the file.
func LoadConfig(path string, dst *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if dst.Core.LogLevel != "" {
		lvl, err := stdlog.ParseLevel(dst.Core.LogLevel)
		if err != nil {
			return fmt.Errorf("config core.log_level: %w", err)
		}
		Log.SetLevel(lvl)
	}
	return nil
}
