package factom

import (
	"context"
	"fmt"
)

// DBlock represents a Factom Directory Block.
type DBlock struct {
	KeyMR  *Bytes32
	Height uint32

	// DBlock.Get populates EBlocks with their ChainID and KeyMR.
	EBlocks []EBlock
}

// IsPopulated returns true if db has already been successfully populated by a
// call to Get. IsPopulated returns false if db.EBlocks is nil.
func (db DBlock) IsPopulated() bool {
	return db.EBlocks != nil
}

// Get queries factomd for the Directory Block at db.Height. After a successful
// call, the EBlocks will all have their ChainID, KeyMR and Height, but not
// their Entries. Call Get on the EBlocks individually to populate their
// Entries.
func (db *DBlock) Get(ctx context.Context, c *Client) error {
	if db.IsPopulated() {
		return nil
	}

	params := struct {
		Height uint32 `json:"height"`
	}{Height: db.Height}
	var result struct {
		DBlock struct {
			KeyMR  *Bytes32 `json:"keymr"`
			Header struct {
				Height uint32 `json:"dbheight"`
			} `json:"header"`
			EBlocks []struct {
				ChainID *Bytes32 `json:"chainid"`
				KeyMR   *Bytes32 `json:"keymr"`
			} `json:"dbentries"`
		} `json:"dblock"`
	}
	if err := c.FactomdRequest(ctx, "dblock-by-height", params, &result); err != nil {
		return err
	}
	if result.DBlock.Header.Height != db.Height {
		return fmt.Errorf("dblock-by-height %v: invalid height %v",
			db.Height, result.DBlock.Header.Height)
	}

	db.KeyMR = result.DBlock.KeyMR
	db.EBlocks = make([]EBlock, 0, len(result.DBlock.EBlocks))
	for _, eb := range result.DBlock.EBlocks {
		if eb.ChainID == nil || eb.KeyMR == nil {
			return fmt.Errorf("dblock-by-height %v: incomplete dbentry",
				db.Height)
		}
		db.EBlocks = append(db.EBlocks, EBlock{
			ChainID: eb.ChainID,
			KeyMR:   eb.KeyMR,
			Height:  db.Height,
		})
	}
	return nil
}

// EBlock returns the EBlock in db for chainID, or nil if db does not contain
// an EBlock for that chain.
func (db DBlock) EBlock(chainID Bytes32) *EBlock {
	for i := range db.EBlocks {
		eb := &db.EBlocks[i]
		if *eb.ChainID == chainID {
			return eb
		}
	}
	return nil
}
