package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"

	"github.com/iov-one/block-ledger/cmd/node/app"
	"github.com/iov-one/block-ledger/pkg/config"
	"github.com/iov-one/block-ledger/pkg/consensus"
	"github.com/iov-one/block-ledger/pkg/ledger"
	"github.com/iov-one/block-ledger/pkg/peerstore"
	"github.com/iov-one/block-ledger/pkg/store"
	"github.com/iov-one/block-ledger/pkg/transport"
	"github.com/labstack/gommon/log"
)

var logLevels = map[string]log.Lvl{
	"debug": log.DEBUG,
	"info":  log.INFO,
	"warn":  log.WARN,
	"error": log.ERROR,
}

func main() {
	conf, err := config.FromEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logger := log.New("ledger")
	logger.SetLevel(logLevels[conf.LogLevel])

	ctx, cancel := context.WithCancel(context.Background())

	l := ledger.New()

	var st *store.Store
	if conf.PostgresURI != "" {
		db, err := sql.Open("postgres", conf.PostgresURI)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		defer db.Close()

		if err := store.EnsureSchema(db); err != nil {
			panic(err)
		}
		st = store.NewStore(db)

		// The in-memory chain starts over, so does its mirror.
		if err := st.ReplaceChain(ctx, l.Chain()); err != nil {
			logger.Fatalf("cannot reset archive: %s", err)
		}
	}

	var peers consensus.PeerStore
	if conf.PeerDBPath != "" {
		ps, err := peerstore.Open(conf.PeerDBPath)
		if err != nil {
			logger.Fatalf("cannot open peer store: %s", err)
		}
		defer ps.Close()
		peers = ps
	}

	registry := consensus.NewRegistry(peers)
	if err := registry.Load(); err != nil {
		logger.Fatalf("cannot load peers: %s", err)
	}
	for _, p := range conf.BootstrapPeers {
		if err := registry.RegisterNode(p); err != nil {
			logger.Warnf("skipping bootstrap peer %q: %s", p, err)
		}
	}
	logger.Infof("node %s starts with %d peers", conf.NodeID, registry.Len())

	fetcher, err := transport.New(conf.PeerTransport, conf.PeerTimeout)
	if err != nil {
		logger.Fatal(err)
	}

	a := app.App{
		Ledger:   l,
		Registry: registry,
		Resolver: consensus.NewResolver(registry, l, fetcher, conf.PeerTimeout, logger),
		Store:    st,
		NodeID:   conf.NodeID,
		Logger:   logger,
	}
	a.Initialize(ctx, conf.AllowedOrigins)

	go func() {
		defer cancel()
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt)
		<-quit
	}()

	a.Run(ctx, conf.Port)
}
