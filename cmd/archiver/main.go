package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/iov-one/block-ledger/cmd/archiver/archive"
	"github.com/iov-one/block-ledger/pkg/store"
	"github.com/iov-one/block-ledger/pkg/transport"
	"github.com/iov-one/block-ledger/utils"
	"github.com/iov-one/weave/errors"
	_ "github.com/lib/pq"
)

type configuration struct {
	// Network location of the node to mirror
	NodeAddr      string
	PostgresURI   string
	PeerTransport string
	Timeout       time.Duration
}

func main() {
	conf := configuration{
		NodeAddr:      os.Getenv("NODE_ADDR"),
		PostgresURI:   os.Getenv("POSTGRES_URI"),
		PeerTransport: utils.Env("PEER_TRANSPORT", transport.Websocket),
	}
	timeout, err := time.ParseDuration(utils.Env("PEER_TIMEOUT", "30s"))
	if err != nil {
		log.Fatalf("PEER_TIMEOUT: %s", err)
	}
	conf.Timeout = timeout

	if err := run(conf); err != nil {
		log.Fatal(err)
	}
}

func run(conf configuration) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if conf.NodeAddr == "" {
		return errors.Wrap(errors.ErrInput, "NODE_ADDR must be set")
	}

	db, err := sql.Open("postgres", conf.PostgresURI)
	if err != nil {
		return fmt.Errorf("cannot connect to postgres: %s", err)
	}
	defer db.Close()

	if err := store.EnsureSchema(db); err != nil {
		return fmt.Errorf("ensure schema: %s", err)
	}

	st := store.NewStore(db)

	fetcher, err := transport.New(conf.PeerTransport, conf.Timeout)
	if err != nil {
		return errors.Wrap(err, "transport")
	}

	res, err := archive.Sync(ctx, fetcher, st, conf.NodeAddr, nil)
	if err != nil {
		return errors.Wrap(err, "sync")
	}

	fmt.Println("archived:", res.Inserted, "of", res.Length, "blocks, replaced:", res.Replaced)

	return nil
}
