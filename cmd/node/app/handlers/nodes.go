package handlers

import (
	"net/http"

	"github.com/iov-one/block-ledger/pkg/consensus"
	"github.com/iov-one/block-ledger/pkg/ledger"
	"github.com/iov-one/block-ledger/pkg/models"
	"github.com/labstack/echo/v4"
)

// NodesHandler registers peers and runs consensus.
type NodesHandler struct {
	Ledger   *ledger.Ledger
	Registry *consensus.Registry
	Resolver *consensus.Resolver
	Mirror   *Mirror
}

// e.POST("/nodes/register", h.RegisterNodes)
func (h *NodesHandler) RegisterNodes(c echo.Context) error {
	var req models.RegisterNodesRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if len(req.Nodes) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "Please supply a valid list of nodes")
	}

	// A single malformed address rejects the whole request.
	locations := make([]string, 0, len(req.Nodes))
	for _, node := range req.Nodes {
		location, err := consensus.NetworkLocation(node)
		if err != nil {
			return err
		}
		locations = append(locations, location)
	}
	for _, location := range locations {
		if err := h.Registry.RegisterNode(location); err != nil {
			return err
		}
	}

	return c.JSON(http.StatusCreated, struct {
		Message    string   `json:"message"`
		TotalNodes []string `json:"total_nodes"`
	}{
		Message:    "New nodes have been added",
		TotalNodes: h.Registry.Peers(),
	})
}

// e.GET("/nodes", h.GetNodes)
func (h *NodesHandler) GetNodes(c echo.Context) error {
	return c.JSON(http.StatusOK, struct {
		Nodes []string `json:"nodes"`
	}{
		Nodes: h.Registry.Peers(),
	})
}

type peerOutcome struct {
	Peer   string `json:"peer"`
	Status string `json:"status"`
	Length int    `json:"length,omitempty"`
	Error  string `json:"error,omitempty"`
}

// e.GET("/nodes/resolve", h.Resolve)
func (h *NodesHandler) Resolve(c echo.Context) error {
	ctx := c.Request().Context()
	res := h.Resolver.Resolve(ctx)
	chain := h.Ledger.Chain()

	peers := make([]peerOutcome, 0, len(res.Outcomes))
	for _, o := range res.Outcomes {
		p := peerOutcome{Peer: o.Peer, Status: o.Status.String(), Length: o.Length}
		if o.Err != nil {
			p.Error = o.Err.Error()
		}
		peers = append(peers, p)
	}

	if !res.Replaced {
		return c.JSON(http.StatusOK, struct {
			Message string         `json:"message"`
			Chain   []models.Block `json:"chain"`
			Peers   []peerOutcome  `json:"peers"`
		}{
			Message: "Our chain is authoritative",
			Chain:   chain,
			Peers:   peers,
		})
	}

	if err := h.Mirror.ChainReplaced(ctx); err != nil {
		c.Logger().Warnf("cannot archive replaced chain: %s", err)
	}
	return c.JSON(http.StatusOK, struct {
		Message  string         `json:"message"`
		NewChain []models.Block `json:"new_chain"`
		Peers    []peerOutcome  `json:"peers"`
	}{
		Message:  "Our chain was replaced",
		NewChain: chain,
		Peers:    peers,
	})
}
