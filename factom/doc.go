// Package factom provides data types corresponding to some of the Factom
// blockchain's data structures, as well as methods on those types for querying
// the data from factomd and factom-walletd's APIs.
//
// The DBlock, EBlock and Entry types have the Get and IsPopulated methods.
// Get makes calls to the factomd API to populate the data in the variable on
// which it is called. IsPopulated returns whether that has already happened.
//
// Errors returned by requests are either a *RemoteError, when factomd
// responded with a JSON RPC error object, or a *TransportError for everything
// else. Use errors.Is with ErrNotFound to detect a missing chain, block or
// entry.
//
// A ChainReader reconstructs the full, ordered list of entries of a chain by
// walking its EBlocks back from the chain head. Any BlockSource may back a
// ChainReader, and *Client is the BlockSource that talks to factomd.
//
// The Bytes and Bytes32 types are used by other types when JSON marshaling and
// unmarshaling to and from hex encoded data is required. Bytes32 is used for
// Chain IDs, KeyMRs and Entry hashes.
package factom
