package factom

import "context"

// BlockSource provides point queries into the Factom blockchain. Client is
// the BlockSource backed by factomd.
type BlockSource interface {
	// ChainHead returns the KeyMR of the latest EBlock of chainID. If the
	// chain has no EBlocks, the zero Bytes32 and a nil error are returned.
	ChainHead(ctx context.Context, chainID Bytes32) (Bytes32, error)

	// EBlock returns the populated EBlock with keyMR. The Entries only
	// carry their Hash, Timestamp, ChainID and Height.
	EBlock(ctx context.Context, keyMR Bytes32) (EBlock, error)

	// Entry returns the populated Entry with hash.
	Entry(ctx context.Context, hash Bytes32) (Entry, error)

	// DBlockByHeight returns the DBlock at height. Its EBlocks only carry
	// their ChainID, KeyMR and Height.
	DBlockByHeight(ctx context.Context, height uint32) (DBlock, error)
}

var _ BlockSource = (*Client)(nil)

// ChainHead implements BlockSource.
func (c *Client) ChainHead(ctx context.Context, chainID Bytes32) (Bytes32, error) {
	eb := EBlock{ChainID: &chainID}
	if err := eb.GetChainHead(ctx, c); err != nil {
		return Bytes32{}, err
	}
	if eb.KeyMR == nil {
		return Bytes32{}, nil
	}
	return *eb.KeyMR, nil
}

// EBlock implements BlockSource.
func (c *Client) EBlock(ctx context.Context, keyMR Bytes32) (EBlock, error) {
	eb := EBlock{KeyMR: &keyMR}
	if err := eb.Get(ctx, c); err != nil {
		return EBlock{}, err
	}
	return eb, nil
}

// Entry implements BlockSource.
func (c *Client) Entry(ctx context.Context, hash Bytes32) (Entry, error) {
	e := Entry{Hash: &hash}
	if err := e.Get(ctx, c); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// DBlockByHeight implements BlockSource.
func (c *Client) DBlockByHeight(ctx context.Context, height uint32) (DBlock, error) {
	db := DBlock{Height: height}
	if err := db.Get(ctx, c); err != nil {
		return DBlock{}, err
	}
	return db, nil
}
