package consensus

import (
	"net/url"
	"sort"
	"strings"
	"sync"

	"github.com/iov-one/weave/errors"
)

// PeerStore persists registered peers. It is optional, a Registry without
// one keeps peers in memory only.
type PeerStore interface {
	Load() ([]string, error)
	Add(peer string) error
}

// Registry is the set of known peers, identified by their network location
// (host with optional port). Peers are never removed.
type Registry struct {
	mu    sync.RWMutex
	peers map[string]struct{}
	store PeerStore
}

// NewRegistry returns an empty registry. store may be nil.
func NewRegistry(store PeerStore) *Registry {
	return &Registry{
		peers: make(map[string]struct{}),
		store: store,
	}
}

// Load adds all peers found in the store to the registry.
func (r *Registry) Load() error {
	if r.store == nil {
		return nil
	}
	peers, err := r.store.Load()
	if err != nil {
		return errors.Wrap(err, "load peers")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range peers {
		r.peers[p] = struct{}{}
	}
	return nil
}

// RegisterNode adds the network location of address to the registry.
// Registering a location twice is a no-op. ErrInput is returned when no
// host can be extracted from address.
func (r *Registry) RegisterNode(address string) error {
	location, err := NetworkLocation(address)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.peers[location]; ok {
		return nil
	}
	if r.store != nil {
		if err := r.store.Add(location); err != nil {
			return errors.Wrap(err, "store peer")
		}
	}
	r.peers[location] = struct{}{}
	return nil
}

// Peers returns all registered network locations in lexicographic order.
func (r *Registry) Peers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.peers))
	for p := range r.peers {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered peers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// NetworkLocation extracts host[:port] from a URL like address. A bare
// "host:port" without scheme is accepted as well. Scheme, path, query and
// user information are dropped.
func NetworkLocation(address string) (string, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return "", errors.Wrap(errors.ErrInput, "empty address")
	}
	raw := address
	if !strings.Contains(raw, "://") {
		raw = "//" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInput, "address %q: %s", address, err)
	}
	if u.Hostname() == "" {
		return "", errors.Wrapf(errors.ErrInput, "address %q has no host", address)
	}
	return strings.ToLower(u.Host), nil
}
