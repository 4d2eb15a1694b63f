package factom

import (
	"context"
	"encoding/hex"
	"fmt"
)

// EntryIterator lazily produces the entries of a chain. The usage follows
// bufio.Scanner:
//
//	it := r.ReadChain(chainID, ReadOptions{})
//	for it.Next(ctx) {
//		e := it.Entry()
//		...
//	}
//	if err := it.Err(); err != nil {
//		// The traversal is incomplete.
//	}
//
// An EntryIterator is not safe for concurrent use.
type EntryIterator struct {
	src     BlockSource
	chainID Bytes32
	opts    ReadOptions
	load    func(context.Context) ([]EBlock, error)

	loaded bool
	// stack holds the EBlocks not yet emitted, latest first, so the
	// earliest EBlock is always on top.
	stack []EBlock
	cur   *EBlock
	pos   int

	entry ChainEntry
	err   error
	done  bool
}

// Next advances the iterator to the next entry, which is then available from
// Entry. Next returns false when there are no more entries or an error
// occurred. After Next returns false, Err reports whether the traversal ended
// early.
func (it *EntryIterator) Next(ctx context.Context) bool {
	if it.done || it.err != nil {
		return false
	}
	if err := ctx.Err(); err != nil {
		it.err = err
		return false
	}

	if !it.loaded {
		stack, err := it.load(ctx)
		if err != nil {
			it.err = err
			return false
		}
		it.stack = stack
		it.loaded = true
	}

	for it.cur == nil || it.pos >= len(it.cur.Entries) {
		if len(it.stack) == 0 {
			it.cur = nil
			it.done = true
			return false
		}
		top := len(it.stack) - 1
		eb := it.stack[top]
		it.stack = it.stack[:top]
		it.cur, it.pos = &eb, 0
	}

	ptr := it.cur.Entries[it.pos]
	if ptr.Hash == nil {
		it.err = fmt.Errorf("chain %v: eblock %v: entry %v: missing hash",
			it.chainID, it.cur.KeyMR, it.pos)
		return false
	}
	e, err := it.src.Entry(ctx, *ptr.Hash)
	if err != nil {
		it.err = fmt.Errorf("chain %v: height %v: entry %v: %w",
			it.chainID, it.cur.Height, ptr.Hash, err)
		return false
	}
	it.pos++

	it.entry = it.newChainEntry(e, ptr)
	return true
}

func (it *EntryIterator) newChainEntry(e, ptr Entry) ChainEntry {
	ce := ChainEntry{ChainID: it.chainID}
	ce.ExtIDs = make([][]byte, len(e.ExtIDs))
	for i, extID := range e.ExtIDs {
		ce.ExtIDs[i] = it.encode(extID)
	}
	ce.Content = it.encode(e.Content)
	if it.opts.IncludeContext {
		ce.Context = &EntryContext{
			Hash:      *ptr.Hash,
			Timestamp: ptr.Timestamp,
			Height:    it.cur.Height,
		}
	}
	return ce
}

func (it *EntryIterator) encode(data []byte) []byte {
	if !it.opts.HexEncoded {
		return append([]byte{}, data...)
	}
	text := make([]byte, hex.EncodedLen(len(data)))
	hex.Encode(text, data)
	return text
}

// Entry returns the entry produced by the latest call to Next.
func (it *EntryIterator) Entry() ChainEntry {
	return it.entry
}

// Err returns the error that stopped the iteration, if any.
func (it *EntryIterator) Err() error {
	return it.err
}

// All consumes the remainder of it and returns the entries.
func (it *EntryIterator) All(ctx context.Context) ([]ChainEntry, error) {
	var es []ChainEntry
	for it.Next(ctx) {
		es = append(es, it.Entry())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return es, nil
}
