package service

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// ReferenceGenerator issues human-facing rental reference numbers.
type ReferenceGenerator interface {
	Next() string
}

type snowflakeReferences struct {
	node *snowflake.Node
}

// NewReferenceGenerator returns references unique across up to 1024 server
// nodes, e.g. "RNT-5RVX0QF3NG".
func NewReferenceGenerator(nodeID int64) (ReferenceGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}
	return &snowflakeReferences{node: node}, nil
}

func (g *snowflakeReferences) Next() string {
	return "RNT-" + strings.ToUpper(g.node.Generate().Base36())
}
