package invoicing

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
)

// ReceiptNumberGenerator issues receipt numbers for recorded payments
type ReceiptNumberGenerator interface {
	Next() string
}

// SnowflakeReceipts issues time-ordered receipt numbers from a snowflake node.
// Each server instance must run with its own node ID.
type SnowflakeReceipts struct {
	node *snowflake.Node
}

// NewSnowflakeReceipts creates a generator for the given node ID (0-1023)
func NewSnowflakeReceipts(nodeID int64) (*SnowflakeReceipts, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("receipt node %d: %w", nodeID, err)
	}
	return &SnowflakeReceipts{node: node}, nil
}

// Next returns a new receipt number such as "RCP-1541815603606036480"
func (g *SnowflakeReceipts) Next() string {
	return "RCP-" + g.node.Generate().String()
}
