package factom

import (
	"context"
	"fmt"
	"time"
)

// Entry represents a Factom Entry.
type Entry struct {
	// EBlock.Get populates the Hash, Timestamp, ChainID, and Height.
	Hash      *Bytes32  `json:"entryhash,omitempty"`
	Timestamp time.Time `json:"-"`
	ChainID   *Bytes32  `json:"chainid,omitempty"`
	Height    uint32    `json:"-"`

	// Entry.Get populates the Content and ExtIDs.
	ExtIDs  []Bytes `json:"extids"`
	Content Bytes   `json:"content"`
}

// IsPopulated returns true if e has already been successfully populated by a
// call to Get. IsPopulated returns false if both e.ExtIDs and e.Content are
// nil.
func (e Entry) IsPopulated() bool {
	return e.ExtIDs != nil || e.Content != nil
}

// Get queries factomd for the entry corresponding to e.Hash.
//
// If the Entry is already populated, Get does nothing.
func (e *Entry) Get(ctx context.Context, c *Client) error {
	if e.IsPopulated() {
		return nil
	}
	if e.Hash == nil {
		return fmt.Errorf("Hash is nil")
	}

	params := struct {
		Hash *Bytes32 `json:"hash"`
	}{Hash: e.Hash}
	var result struct {
		ChainID *Bytes32 `json:"chainid"`
		ExtIDs  []Bytes  `json:"extids"`
		Content Bytes    `json:"content"`
	}
	if err := c.FactomdRequest(ctx, "entry", params, &result); err != nil {
		return err
	}
	if e.ChainID != nil && result.ChainID != nil &&
		*e.ChainID != *result.ChainID {
		return fmt.Errorf("entry %v: invalid ChainID %v",
			e.Hash, result.ChainID)
	}
	if result.ChainID != nil {
		e.ChainID = result.ChainID
	}

	// Normalize to non-nil so that IsPopulated is true for an empty
	// entry.
	e.ExtIDs = result.ExtIDs
	if e.ExtIDs == nil {
		e.ExtIDs = []Bytes{}
	}
	e.Content = result.Content
	if e.Content == nil {
		e.Content = Bytes{}
	}
	return nil
}
