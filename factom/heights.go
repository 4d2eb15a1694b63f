package factom

import "context"

// Heights contains all of the distinct heights for a factomd node and the
// Factom network.
type Heights struct {
	// The current directory block height of the local factomd node.
	DirectoryBlock uint32 `json:"directoryblockheight"`

	// The current block being worked on by the leaders in the network.
	// This block is not yet complete, but all transactions submitted will
	// go into this block (depending on network conditions, the transaction
	// may be delayed into the next block)
	Leader uint32 `json:"leaderheight"`

	// The height at which the factomd node has all the entry blocks.
	// Directory blocks are obtained first, entry blocks could be lagging
	// behind the directory block when syncing.
	EntryBlock uint32 `json:"entryblockheight"`

	// The height at which the local factomd node has all the entries. If
	// you added entries at a block height above this, they will not be
	// able to be retrieved by the local factomd until it syncs further.
	Entry uint32 `json:"entryheight"`
}

// Get uses c to call the "heights" RPC method and populates h with the result.
func (h *Heights) Get(ctx context.Context, c *Client) error {
	return c.FactomdRequest(ctx, "heights", nil, h)
}

// Properties reports the versions of a factomd and factom-walletd pair.
type Properties struct {
	FactomdVersion    string `json:"factomdversion"`
	FactomdAPIVersion string `json:"factomdapiversion"`
	WalletdVersion    string `json:"walletversion"`
	WalletdAPIVersion string `json:"walletapiversion"`
}

// Get uses c to call the "properties" RPC method on factomd and, unless
// factomdOnly is set, on factom-walletd.
func (p *Properties) Get(ctx context.Context, c *Client, factomdOnly bool) error {
	if err := c.FactomdRequest(ctx, "properties", nil, p); err != nil {
		return err
	}
	if factomdOnly {
		return nil
	}
	return c.WalletdRequest(ctx, "properties", nil, p)
}
