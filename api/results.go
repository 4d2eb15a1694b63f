// MIT License
//
// Copyright 2018 Canonical Ledgers, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS
// IN THE SOFTWARE.

package api

import (
	"github.com/Factom-Asset-Tokens/factom-api/factom"
	jrpc "github.com/AdamSLevy/jsonrpc2/v14"
)

const APIVersion = "1"

// ParamsGetEvents pages through the recorded LiveFeed events in the order
// they were received.
type ParamsGetEvents struct {
	// After is the id of the last event already seen.
	After int64 `json:"after,omitempty"`
	// Limit is the maximum number of events returned, 0 means MaxLimit.
	Limit int `json:"limit,omitempty"`
}

// MaxLimit is the maximum number of events returned by one request.
const MaxLimit = 1000

func (p *ParamsGetEvents) IsValid() error {
	if p.After < 0 {
		return jrpc.ErrorInvalidParams(`"after" must not be negative`)
	}
	if p.Limit < 0 || p.Limit > MaxLimit {
		return jrpc.ErrorInvalidParams(`"limit" must be between 0 and 1000`)
	}
	if p.Limit == 0 {
		p.Limit = MaxLimit
	}
	return nil
}

type Event struct {
	ID int64 `json:"id"`
	// Received is the Unix time in nanoseconds.
	Received int64        `json:"received"`
	Data     factom.Bytes `json:"data"`
}

type ResultGetEvents struct {
	Events []Event `json:"events"`
	// More is true if there are events after the last returned one.
	More bool `json:"more"`
}

type ResultGetEventCount struct {
	Count int64 `json:"count"`
}

// ParamsGetEntries selects the stored entries of a chain.
type ParamsGetEntries struct {
	ChainID    *factom.Bytes32 `json:"chainid"`
	FromHeight uint32          `json:"fromheight,omitempty"`
}

func (p *ParamsGetEntries) IsValid() error {
	if p.ChainID == nil {
		return jrpc.ErrorInvalidParams(`required: "chainid"`)
	}
	return nil
}

type Entry struct {
	Hash      *factom.Bytes32 `json:"entryhash"`
	Timestamp int64           `json:"timestamp"`
	Height    uint32          `json:"dbheight"`
	ExtIDs    []factom.Bytes  `json:"extids"`
	Content   factom.Bytes    `json:"content"`
}

type ResultGetDaemonProperties struct {
	Version    string `json:"livefeeddversion"`
	APIVersion string `json:"apiversion"`
	Recording  bool   `json:"recording"`
}

// ErrorNotRecording is returned by every method that reads the database when
// livefeedd was started without -dbpath.
var ErrorNotRecording = jrpc.Error{Code: -32800, Message: "Not Recording",
	Data: "livefeedd was started without a database"}
