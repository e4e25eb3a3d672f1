// Package config loads the small amount of process-level configuration
// each binary needs before it can start: where the Hub binds, and where a
// peer dials. This is distinct from internal/settings, which governs the
// much larger set of user-editable, persisted fields (spec.md §4.9).
// Grounded on the teacher's cli/internal/config.Load precedence
// (CLI flag > environment variable > hardcoded default).
package config

import "os"

// HubConfig is what cmd/hub needs to start listening. Per spec.md §6 the
// port is fixed at 8080 and the bind host is 0.0.0.0; APIKey is read from
// the environment so it is never committed alongside code.
type HubConfig struct {
	BindHost string
	BindPort int
	APIKey   string
}

// HubOptions carries CLI-flag values, empty when unset.
type HubOptions struct {
	BindHost string
	BindPort int
	APIKey   string
}

const (
	DefaultBindHost = "0.0.0.0"
	DefaultBindPort = 8080
)

// LoadHub resolves the Hub's configuration: flag > env > default for the
// bind host and API key, flag > default for the port (it has no
// environment variable).
func LoadHub(opts HubOptions) HubConfig {
	host := opts.BindHost
	if host == "" {
		host = os.Getenv("FABRIC_BIND_HOST")
	}
	if host == "" {
		host = DefaultBindHost
	}

	port := opts.BindPort
	if port == 0 {
		port = DefaultBindPort
	}

	key := opts.APIKey
	if key == "" {
		key = os.Getenv("API_KEY")
	}

	return HubConfig{BindHost: host, BindPort: port, APIKey: key}
}

// PeerConfig is what a peer binary needs to dial the Hub.
type PeerConfig struct {
	URL string
	Key string
}

// PeerOptions carries CLI-flag values, empty when unset.
type PeerOptions struct {
	URL string
	Key string
}

const DefaultURL = "ws://localhost:8080/ws"

// LoadPeer resolves a peer's dial configuration: flag > env > default.
// Unlike HubConfig this is only the bootstrap value — once connected, the
// address/key settings are the source of truth and live in the persisted
// settings store (internal/settings), consistent with
// original_source/example-communication-client/src/settings.rs treating
// `address`/`key` as editable fields, not launch flags.
func LoadPeer(opts PeerOptions) PeerConfig {
	url := opts.URL
	if url == "" {
		url = os.Getenv("FABRIC_SERVER_URL")
	}
	if url == "" {
		url = DefaultURL
	}

	key := opts.Key
	if key == "" {
		key = os.Getenv("FABRIC_API_KEY")
	}

	return PeerConfig{URL: url, Key: key}
}
