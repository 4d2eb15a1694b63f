package factom

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// ReadOptions control which entries a ChainReader returns and how they are
// represented.
type ReadOptions struct {
	// FromHeight excludes every EBlock with a DBlock height below it.
	FromHeight uint32

	// IncludeContext populates ChainEntry.Context.
	IncludeContext bool

	// HexEncoded returns the ExtIDs and Content as lowercase hex text
	// instead of the raw bytes.
	HexEncoded bool
}

// EntryContext locates a ChainEntry within its chain.
type EntryContext struct {
	Hash      Bytes32   `json:"entryhash"`
	Timestamp time.Time `json:"timestamp"`
	Height    uint32    `json:"dbheight"`
}

// ChainEntry is an Entry as returned by a ChainReader.
type ChainEntry struct {
	ChainID Bytes32  `json:"chainid"`
	ExtIDs  [][]byte `json:"extids"`
	Content []byte   `json:"content"`

	// Context is nil unless ReadOptions.IncludeContext is set.
	Context *EntryContext `json:"context,omitempty"`
}

// ChainReader reconstructs the entries of a chain in the order they were
// appended, using only the point queries of a BlockSource.
//
// A ChainReader holds no mutable state, so concurrent traversals may share
// one.
type ChainReader struct {
	src BlockSource
}

// NewChainReader returns a ChainReader that queries src.
func NewChainReader(src BlockSource) *ChainReader {
	return &ChainReader{src: src}
}

// ReadChain returns an EntryIterator over all entries of chainID in EBlocks
// at or above opts.FromHeight, ordered by DBlock height and then by the order
// they appear in their EBlock.
//
// No requests are made until the first call to EntryIterator.Next. The first
// call walks back from the chain head until the first EBlock of the chain or
// an EBlock below opts.FromHeight. Every subsequent entry costs one request.
//
// A chain with no EBlocks yields no entries and no error.
func (r *ChainReader) ReadChain(chainID Bytes32, opts ReadOptions) *EntryIterator {
	return &EntryIterator{
		src:     r.src,
		chainID: chainID,
		opts:    opts,
		load: func(ctx context.Context) ([]EBlock, error) {
			return r.walkBack(ctx, chainID, opts.FromHeight)
		},
	}
}

// EntriesAtHeight returns an EntryIterator over the entries of the single
// EBlock of chainID in the DBlock at height. If the chain has no EBlock at
// that height, the iterator yields no entries and no error.
//
// opts.FromHeight is ignored.
func (r *ChainReader) EntriesAtHeight(chainID Bytes32,
	height uint32, opts ReadOptions) *EntryIterator {
	return &EntryIterator{
		src:     r.src,
		chainID: chainID,
		opts:    opts,
		load: func(ctx context.Context) ([]EBlock, error) {
			db, err := r.src.DBlockByHeight(ctx, height)
			if err != nil {
				return nil, fmt.Errorf("chain %v: dblock %v: %w",
					chainID, height, err)
			}
			dbEB := db.EBlock(chainID)
			if dbEB == nil {
				return nil, nil
			}
			eb, err := r.src.EBlock(ctx, *dbEB.KeyMR)
			if err != nil {
				return nil, fmt.Errorf("chain %v: eblock %v: %w",
					chainID, dbEB.KeyMR, err)
			}
			if err := checkEBlock(chainID, *dbEB.KeyMR, eb); err != nil {
				return nil, err
			}
			return []EBlock{eb}, nil
		},
	}
}

// walkBack returns the EBlocks of chainID at or above fromHeight, from the
// chain head back to the earliest qualifying EBlock.
func (r *ChainReader) walkBack(ctx context.Context,
	chainID Bytes32, fromHeight uint32) ([]EBlock, error) {
	head, err := r.src.ChainHead(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("chain %v: chain-head: %w", chainID, err)
	}

	var ebs []EBlock
	for keyMR := head; !keyMR.IsZero(); keyMR = *ebs[len(ebs)-1].PrevKeyMR {
		eb, err := r.src.EBlock(ctx, keyMR)
		if err != nil {
			return nil, fmt.Errorf("chain %v: eblock %v: %w",
				chainID, keyMR, err)
		}
		if err := checkEBlock(chainID, keyMR, eb); err != nil {
			return nil, err
		}
		if len(ebs) > 0 && eb.Height > ebs[len(ebs)-1].Height {
			return nil, fmt.Errorf(
				"chain %v: eblock %v: height %v above next EBlock height %v",
				chainID, keyMR, eb.Height, ebs[len(ebs)-1].Height)
		}
		if eb.Height < fromHeight {
			break
		}
		ebs = append(ebs, eb)
	}
	return ebs, nil
}

func checkEBlock(chainID, keyMR Bytes32, eb EBlock) error {
	if !eb.IsPopulated() {
		return fmt.Errorf("chain %v: eblock %v: not populated", chainID, keyMR)
	}
	if eb.ChainID != nil && *eb.ChainID != chainID {
		return fmt.Errorf("chain %v: eblock %v: belongs to chain %v",
			chainID, keyMR, eb.ChainID)
	}
	if *eb.PrevKeyMR == keyMR {
		return fmt.Errorf("chain %v: eblock %v: references itself",
			chainID, keyMR)
	}
	return nil
}

// ReadChains reads each of chainIDs with ReadChain concurrently and returns
// the complete list of entries for each chain. If any traversal fails, the
// others are cancelled and the first error is returned.
func (r *ChainReader) ReadChains(ctx context.Context,
	chainIDs []Bytes32, opts ReadOptions) (map[Bytes32][]ChainEntry, error) {
	entries := make([][]ChainEntry, len(chainIDs))
	g, ctx := errgroup.WithContext(ctx)
	for i, chainID := range chainIDs {
		i, chainID := i, chainID
		g.Go(func() error {
			es, err := r.ReadChain(chainID, opts).All(ctx)
			if err != nil {
				return err
			}
			entries[i] = es
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	chains := make(map[Bytes32][]ChainEntry, len(chainIDs))
	for i, chainID := range chainIDs {
		chains[chainID] = entries[i]
	}
	return chains, nil
}
