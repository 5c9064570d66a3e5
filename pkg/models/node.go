package models

type RegisterNodesRequest struct {
	Nodes []string `json:"nodes"`
}
