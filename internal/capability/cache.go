package capability

import (
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/fabricmesh/peerfabric/internal/ferr"
	"github.com/fabricmesh/peerfabric/internal/protocol"
)

// cacheEntry is the on-disk shape of one peer's last-seen capability set.
// Never sent over the wire — spec.md §4.1/§6 mandate JSON envelopes for
// that — this is purely a local warm-start scratch file, so msgpack's
// compactness is a free win rather than a protocol commitment.
type cacheEntry struct {
	Peer         string   `msgpack:"peer"`
	Capabilities []string `msgpack:"capabilities"`
}

// SaveCache writes the registry's current snapshot to path, for a later
// process to warm-start from instead of waiting on a fresh
// RequestCapabilities round-trip for every peer.
func SaveCache(path string, r *Registry) error {
	snapshot := r.Snapshot()
	entries := make([]cacheEntry, 0, len(snapshot))
	for peer, caps := range snapshot {
		strs := make([]string, len(caps))
		for i, c := range caps {
			strs[i] = string(c)
		}
		entries = append(entries, cacheEntry{Peer: string(peer), Capabilities: strs})
	}

	data, err := msgpack.Marshal(entries)
	if err != nil {
		return ferr.Wrap("marshal", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ferr.Wrap("write", path, err)
	}
	return nil
}

// LoadCache reads a cache file written by SaveCache and installs it into
// r. A missing file is not an error — the registry simply starts empty
// and waits for RequestCapabilities replies as usual.
func LoadCache(path string, r *Registry) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return ferr.Wrap("read", path, err)
	}

	var entries []cacheEntry
	if err := msgpack.Unmarshal(data, &entries); err != nil {
		return ferr.Wrap("unmarshal", path, err)
	}

	sets := make(map[protocol.PeerId][]protocol.Capability, len(entries))
	for _, e := range entries {
		caps := make([]protocol.Capability, len(e.Capabilities))
		for i, s := range e.Capabilities {
			caps[i] = protocol.Capability(s)
		}
		sets[protocol.PeerId(e.Peer)] = caps
	}
	r.Load(sets)
	return nil
}
