package app

import (
	"context"
	"net/http"
	"time"

	"github.com/iov-one/block-ledger/cmd/node/app/handlers"
	"github.com/iov-one/block-ledger/pkg/consensus"
	"github.com/iov-one/block-ledger/pkg/ledger"
	"github.com/iov-one/block-ledger/pkg/store"
	"github.com/iov-one/weave/errors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "github.com/lib/pq"
)

// App is the HTTP surface of a node. Fields are set by the caller before
// Initialize. Store is optional and enables the archive endpoints.
type App struct {
	Server   *echo.Echo
	Ledger   *ledger.Ledger
	Registry *consensus.Registry
	Resolver *consensus.Resolver
	Store    *store.Store
	NodeID   string
	// Logger replaces the echo default logger when set.
	Logger echo.Logger
	ctx    context.Context
}

func (a *App) Initialize(ctx context.Context, allowedOrigins []string) {
	a.ctx = ctx

	e := echo.New()
	e.HideBanner = true
	if a.Logger != nil {
		e.Logger = a.Logger
	}

	var mirror *handlers.Mirror
	if a.Store != nil {
		mirror = handlers.NewMirror(a.Store, a.Ledger)
	}

	chainHandler := handlers.ChainHandler{Ledger: a.Ledger, NodeID: a.NodeID, Mirror: mirror}
	e.GET("/chain", chainHandler.GetChain)
	e.GET("/chain/ws", chainHandler.GetChainWS)
	e.GET("/mine", chainHandler.Mine)

	txHandler := handlers.TransactionsHandler{Ledger: a.Ledger}
	e.POST("/transactions/new", txHandler.NewTransaction)
	e.GET("/transactions/pending", txHandler.GetPending)

	nodesHandler := handlers.NodesHandler{
		Ledger:   a.Ledger,
		Registry: a.Registry,
		Resolver: a.Resolver,
		Mirror:   mirror,
	}
	e.GET("/nodes", nodesHandler.GetNodes)
	e.POST("/nodes/register", nodesHandler.RegisterNodes)
	e.GET("/nodes/resolve", nodesHandler.Resolve)

	if a.Store != nil {
		g := e.Group("/api")

		blocksHandler := handlers.BlocksHandler{Store: a.Store}
		blockApi := g.Group("/blocks")
		blockApi.GET("", blocksHandler.GetBlocks)
		blockApi.GET("/latest", blocksHandler.GetLatestBlock)
		blockApi.GET("/last/:key", blocksHandler.GetLatestNBlocks)
		blockApi.GET("/hash/:hash", blocksHandler.GetBlockByHash)
		blockApi.GET("/index/:index", blocksHandler.GetBlockByIndex)

		txsHandler := handlers.TxsHandler{Store: a.Store}
		txApi := g.Group("/txs")
		txApi.POST("/query", txsHandler.QueryTxsByParams)
	}

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
	}))
	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10, // 1 KB
	}))

	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if _, ok := err.(*echo.HTTPError); !ok {
			err = &echo.HTTPError{
				Code:     httpCode(err),
				Message:  err.Error(),
				Internal: err,
			}
		}
		e.DefaultHTTPErrorHandler(err, c)
	}
	a.Server = e
}

func httpCode(err error) int {
	switch {
	case errors.ErrInput.Is(err), store.ErrLimit.Is(err):
		return http.StatusBadRequest
	case errors.ErrNotFound.Is(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) Run(ctx context.Context, port string) {
	go func() {
		if err := a.Server.Start(":" + port); err != nil {
			a.Server.Logger.Info("Shutting down the server")
		}
	}()

	<-ctx.Done()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.Server.Shutdown(ctx); err != nil {
		a.Server.Logger.Fatal(err)
	}
}
