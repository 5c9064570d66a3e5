package config

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iov-one/block-ledger/pkg/transport"
	"github.com/iov-one/block-ledger/utils"
	"github.com/iov-one/weave/errors"
)

type Configuration struct {
	// HTTP port the node listens on
	Port string
	// Recipient of mining rewards
	NodeID string
	// Peer transport: "http" or "ws"
	PeerTransport string
	// Bound on a single peer fetch during consensus
	PeerTimeout time.Duration
	// Peers registered on start
	BootstrapPeers []string
	// Postgres URI of the optional block archive
	PostgresURI string
	// Path of the optional bolt database holding registered peers
	PeerDBPath string
	// debug, info, warn or error
	LogLevel string
	// Allowed origins for CORS
	AllowedOrigins []string
}

// FromEnv reads the node configuration from the environment.
func FromEnv() (Configuration, error) {
	conf := Configuration{
		Port:           utils.Env("PORT", "5000"),
		NodeID:         utils.Env("NODE_ID", ""),
		PeerTransport:  strings.ToLower(utils.Env("PEER_TRANSPORT", transport.HTTP)),
		BootstrapPeers: utils.SplitList(utils.Env("BOOTSTRAP_PEERS", "")),
		PostgresURI:    utils.Env("POSTGRES_URI", ""),
		PeerDBPath:     utils.Env("PEER_DB_PATH", ""),
		LogLevel:       strings.ToLower(utils.Env("LOG_LEVEL", "info")),
		AllowedOrigins: utils.SplitList(utils.Env("ALLOWED_ORIGINS", "*")),
	}
	if conf.NodeID == "" {
		conf.NodeID = NewNodeID()
	}

	timeout, err := time.ParseDuration(utils.Env("PEER_TIMEOUT", "5s"))
	if err != nil {
		return conf, errors.Wrapf(errors.ErrInput, "PEER_TIMEOUT: %s", err)
	}
	conf.PeerTimeout = timeout

	return conf, conf.Validate()
}

func (c Configuration) Validate() error {
	if c.Port == "" {
		return errors.Wrap(errors.ErrInput, "PORT must not be empty")
	}
	if !transport.Supported(c.PeerTransport) {
		return errors.Wrapf(errors.ErrInput, "PEER_TRANSPORT %q, want %q or %q",
			c.PeerTransport, transport.HTTP, transport.Websocket)
	}
	if c.PeerTimeout < 0 {
		return errors.Wrapf(errors.ErrInput, "PEER_TIMEOUT %s", c.PeerTimeout)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return errors.Wrapf(errors.ErrInput, "LOG_LEVEL %q", c.LogLevel)
	}
	return nil
}

// NewNodeID returns a random node identifier: a uuid without dashes.
func NewNodeID() string {
	return strings.Replace(uuid.New().String(), "-", "", -1)
}
