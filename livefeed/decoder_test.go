package livefeed_test

import (
	"errors"
	"encoding/binary"
	"io"
	"runtime"
	"strings"
	"testing"

	. "github.com/Factom-Asset-Tokens/factom-api/livefeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedConn returns each chunk from a separate call to Read and records
// every Read and Write in order.
type scriptedConn struct {
	chunks [][]byte
	events []string
	echoed []byte
}

func newScriptedConn(chunks ...string) *scriptedConn {
	c := &scriptedConn{}
	for _, chunk := range chunks {
		c.chunks = append(c.chunks, []byte(chunk))
	}
	return c
}

func (c *scriptedConn) Read(p []byte) (int, error) {
	if len(c.chunks) == 0 {
		return 0, io.EOF
	}
	n := copy(p, c.chunks[0])
	c.events = append(c.events, "read:"+string(c.chunks[0][:n]))
	c.chunks[0] = c.chunks[0][n:]
	if len(c.chunks[0]) == 0 {
		c.chunks = c.chunks[1:]
	}
	return n, nil
}

func (c *scriptedConn) Write(p []byte) (int, error) {
	c.events = append(c.events, "write:"+string(p))
	c.echoed = append(c.echoed, p...)
	return len(p), nil
}

type recorder struct {
	msgs []string
}

func (r *recorder) HandleMessage(msg []byte) {
	r.msgs = append(r.msgs, string(msg))
}

func TestServeFraming(t *testing.T) {
	assert := assert.New(t)
	conn := newScriptedConn("\x01", "\x05\x00\x00\x00", "hel", "lo")
	var r recorder
	require.NoError(t, Serve(conn, &r))
	assert.Equal([]string{"hello"}, r.msgs)
	assert.Equal([]string{
		"read:\x01",
		"write:\x01",
		"read:\x05\x00\x00\x00",
		"read:hel",
		"read:lo",
	}, conn.events)
}

func TestServeTermination(t *testing.T) {
	conn := newScriptedConn()
	var called bool
	err := Serve(conn, HandlerFunc(func([]byte) { called = true }))
	assert.NoError(t, err)
	assert.False(t, called)
	assert.Empty(t, conn.echoed)
}

func TestServeMessages(t *testing.T) {
	assert := assert.New(t)
	conn := newScriptedConn(
		"\x02",
		"\x01\x03\x00\x00\x00abc",
		"\x01\x00\x00\x00\x00",
		"\x07",
		"\x01\x02\x00\x00", "\x00x", "y",
	)
	var r recorder
	require.NoError(t, Serve(conn, &r))
	assert.Equal([]string{"abc", "", "xy"}, r.msgs)
	assert.Equal("\x02\x01\x01\x07\x01", string(conn.echoed))
}

func TestDecoderErrors(t *testing.T) {
	var tests = []struct {
		Name   string
		Chunks []string
		Max    int32
		State  State
		Err    error
	}{{
		Name:   "truncated length",
		Chunks: []string{"\x01", "\x05\x00"},
		State:  AwaitingLength,
		Err:    io.ErrUnexpectedEOF,
	}, {
		Name:   "missing length",
		Chunks: []string{"\x01"},
		State:  AwaitingLength,
		Err:    io.ErrUnexpectedEOF,
	}, {
		Name:   "truncated payload",
		Chunks: []string{"\x01", "\x05\x00\x00\x00", "hel"},
		State:  AwaitingPayload,
		Err:    io.ErrUnexpectedEOF,
	}, {
		Name:   "negative length",
		Chunks: []string{"\x01", "\xff\xff\xff\xff"},
		State:  AwaitingLength,
		Err:    ErrNegativeLength,
	}, {
		Name:   "too large",
		Chunks: []string{"\x01", "\x05\x00\x00\x00", "hello"},
		Max:    4,
		State:  AwaitingLength,
		Err:    ErrMessageTooLarge,
	}}
	for _, test := range tests {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			assert := assert.New(t)
			d := NewDecoder(newScriptedConn(test.Chunks...))
			d.MaxMessageSize = test.Max

			msg, err := d.Next()
			assert.Nil(msg)
			var pErr *ProtocolError
			require.True(t, errors.As(err, &pErr), "%v", err)
			assert.Equal(test.State, pErr.State)
			assert.True(errors.Is(err, test.Err), "%v", err)
			assert.Equal(Closed, d.State())

			_, again := d.Next()
			assert.Equal(err, again)

			if test.Max > 0 {
				return
			}
			var r recorder
			err = Serve(newScriptedConn(test.Chunks...), &r)
			assert.True(errors.As(err, &pErr), "%v", err)
			assert.Equal(test.State, pErr.State)
			assert.Empty(r.msgs)
		})
	}
}

func TestDecoderState(t *testing.T) {
	assert := assert.New(t)
	d := NewDecoder(newScriptedConn("\x01", "\x02\x00\x00\x00", "ab", "\x03"))
	assert.Equal(AwaitingVersion, d.State())

	msg, err := d.Next()
	require.NoError(t, err)
	assert.Equal("ab", string(msg))
	assert.Equal(AwaitingVersion, d.State())
	assert.Equal(Version, d.Version())
	assert.Equal(0, d.Remaining())

	_, err = d.Next()
	assert.Equal(io.EOF, err)
	assert.Equal(Closed, d.State())
	assert.Equal(byte(3), d.Version())

	_, err = d.Next()
	assert.Equal(io.EOF, err)
}

func TestDecoderLargeLength(t *testing.T) {
	assert := assert.New(t)
	var before, after runtime.MemStats
	runtime.ReadMemStats(&before)

	d := NewDecoder(newScriptedConn("\x01", "\xff\xff\xff\x7f", "x"))
	msg, err := d.Next()

	runtime.ReadMemStats(&after)
	assert.Nil(msg)
	var pErr *ProtocolError
	require.True(t, errors.As(err, &pErr), "%v", err)
	assert.Equal(AwaitingPayload, pErr.State)
	assert.True(errors.Is(err, io.ErrUnexpectedEOF), "%v", err)
	assert.Less(after.TotalAlloc-before.TotalAlloc, uint64(16<<20))
}

func TestDecoderChunkedPayload(t *testing.T) {
	payload := strings.Repeat("0123456789abcdef", 20000)
	var length [4]byte
	binary.LittleEndian.PutUint32(length[:], uint32(len(payload)))
	chunks := []string{"\x01", string(length[:])}
	for rest := payload; len(rest) > 0; {
		n := 50000
		if n > len(rest) {
			n = len(rest)
		}
		chunks = append(chunks, rest[:n])
		rest = rest[n:]
	}

	d := NewDecoder(newScriptedConn(chunks...))
	msg, err := d.Next()
	require.NoError(t, err)
	assert.Equal(t, payload, string(msg))
	assert.Equal(t, 0, d.Remaining())

	_, err = d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "awaiting payload", AwaitingPayload.String())
	assert.Equal(t, "State(9)", State(9).String())
}
