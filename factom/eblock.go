package factom

import (
	"context"
	"errors"
	"fmt"
)

// EBlock represents a Factom Entry Block.
type EBlock struct {
	// DBlock.Get populates the ChainID, KeyMR, and Height.
	ChainID *Bytes32
	KeyMR   *Bytes32
	Height  uint32

	// EBlock.Get populates the PrevKeyMR, and the Entries with their
	// Hash, Timestamp, ChainID and Height.
	PrevKeyMR *Bytes32
	Entries   []Entry
}

// IsPopulated returns true if eb has already been successfully populated by a
// call to Get. IsPopulated returns false if eb.PrevKeyMR is nil.
func (eb EBlock) IsPopulated() bool {
	return eb.PrevKeyMR != nil
}

// Get queries factomd for the Entry Block corresponding to eb.KeyMR, if not
// nil, and otherwise the Entry Block chain head for eb.ChainID. Either
// eb.KeyMR or eb.ChainID must not be nil or else Get will fail to populate the
// EBlock.
//
// If eb.KeyMR is nil and the chain has no EBlocks, ErrMissingChainHead is
// returned.
func (eb *EBlock) Get(ctx context.Context, c *Client) error {
	if eb.IsPopulated() {
		return nil
	}
	if eb.KeyMR == nil {
		if eb.ChainID == nil {
			return fmt.Errorf("KeyMR and ChainID are both nil")
		}
		if err := eb.GetChainHead(ctx, c); err != nil {
			return err
		}
		if eb.KeyMR == nil {
			return &RemoteError{Method: "chain-head",
				Code: ErrorCodeMissingChainHead}
		}
	}

	params := struct {
		KeyMR *Bytes32 `json:"keymr"`
	}{KeyMR: eb.KeyMR}
	var result struct {
		Header struct {
			ChainID   *Bytes32 `json:"chainid"`
			PrevKeyMR *Bytes32 `json:"prevkeymr"`
			Height    uint32   `json:"dbheight"`
		} `json:"header"`
		Entries []struct {
			Hash      *Bytes32 `json:"entryhash"`
			Timestamp Time     `json:"timestamp"`
		} `json:"entrylist"`
	}
	if err := c.FactomdRequest(ctx, "entry-block", params, &result); err != nil {
		return err
	}
	if result.Header.PrevKeyMR == nil || result.Header.ChainID == nil {
		return fmt.Errorf("entry-block %v: incomplete header", eb.KeyMR)
	}
	if eb.ChainID != nil && *eb.ChainID != *result.Header.ChainID {
		return fmt.Errorf("entry-block %v: invalid ChainID %v",
			eb.KeyMR, result.Header.ChainID)
	}

	eb.ChainID = result.Header.ChainID
	eb.PrevKeyMR = result.Header.PrevKeyMR
	eb.Height = result.Header.Height
	eb.Entries = make([]Entry, len(result.Entries))
	for i, e := range result.Entries {
		if e.Hash == nil {
			return fmt.Errorf("entry-block %v: entry %v: missing hash",
				eb.KeyMR, i)
		}
		eb.Entries[i] = Entry{
			ChainID:   eb.ChainID,
			Hash:      e.Hash,
			Timestamp: e.Timestamp.Time,
			Height:    eb.Height,
		}
	}
	return nil
}

// GetChainHead queries factomd for the latest KeyMR of eb.ChainID and sets
// eb.KeyMR.
//
// If the chain has no EBlocks yet, eb.KeyMR is left nil and no error is
// returned.
func (eb *EBlock) GetChainHead(ctx context.Context, c *Client) error {
	if eb.ChainID == nil {
		return fmt.Errorf("no ChainID specified")
	}

	params := struct {
		ChainID *Bytes32 `json:"chainid"`
	}{ChainID: eb.ChainID}
	var result struct {
		KeyMR              string `json:"chainhead"`
		ChainInProcessList bool   `json:"chaininprocesslist"`
	}
	if err := c.FactomdRequest(ctx, "chain-head", params, &result); err != nil {
		if errors.Is(err, ErrMissingChainHead) {
			return nil
		}
		return err
	}
	// A chain whose first entry is still in the process list has no
	// head yet.
	if len(result.KeyMR) == 0 {
		return nil
	}
	keyMR, err := NewBytes32FromString(result.KeyMR)
	if err != nil {
		return fmt.Errorf("chain-head %v: %w", eb.ChainID, err)
	}
	if keyMR.IsZero() {
		return nil
	}
	eb.KeyMR = &keyMR
	return nil
}

// IsFirst returns true if this is the first EBlock in its chain, indicated by
// the PrevKeyMR being all zeroes. IsFirst returns false if eb is not
// populated.
func (eb EBlock) IsFirst() bool {
	return eb.IsPopulated() && eb.PrevKeyMR.IsZero()
}

// Prev returns the EBlock preceding eb, an EBlock with its KeyMR initialized
// to eb.PrevKeyMR and ChainID initialized to eb.ChainID.
//
// If eb is the first Entry Block in the chain, then eb is returned. If eb is
// not populated, the returned EBlock will be its zero value.
func (eb EBlock) Prev() EBlock {
	if !eb.IsPopulated() {
		return EBlock{}
	}
	if eb.IsFirst() {
		return eb
	}
	return EBlock{ChainID: eb.ChainID, KeyMR: eb.PrevKeyMR}
}
