package livefeed

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Version is the only protocol version whose messages carry a payload.
const Version byte = 1

// State is the position of a Decoder within a message cycle.
type State int

// A Decoder starts out AwaitingVersion and ends up Closed once the peer hangs
// up or the stream is found to be malformed.
const (
	AwaitingVersion State = iota
	AwaitingLength
	AwaitingPayload
	Closed
)

var stateNames = []string{
	AwaitingVersion: "awaiting version",
	AwaitingLength:  "awaiting length",
	AwaitingPayload: "awaiting payload",
	Closed:          "closed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

var (
	ErrNegativeLength  = errors.New("negative message length")
	ErrMessageTooLarge = errors.New("message length exceeds limit")
)

// ProtocolError is returned by Decoder.Next when the stream ends in the middle
// of a message or announces a length that cannot be honored.
type ProtocolError struct {
	State State
	Err   error
}

func (err *ProtocolError) Error() string {
	return fmt.Sprintf("livefeed: %v: %v", err.State, err.Err)
}

func (err *ProtocolError) Unwrap() error { return err.Err }

// Decoder reads LiveFeed messages from a stream and acknowledges each version
// byte on the same stream.
//
// Each message cycle starts with a single version byte, which is echoed back
// to the peer. A version 1 byte is followed by a little endian int32 length N
// and then exactly N bytes of payload. Any other version has no payload.
type Decoder struct {
	rw io.ReadWriter

	// MaxMessageSize, if positive, is the largest payload length accepted.
	MaxMessageSize int32

	state   State
	version byte
	payload []byte
	// length is the announced payload length and n is the number of
	// payload bytes read so far.
	length int
	n      int
	err    error
}

// readChunkSize is the initial payload buffer capacity. The buffer grows
// only as payload bytes arrive.
const readChunkSize = 64 << 10

// NewDecoder returns a Decoder that reads and acknowledges on rw.
func NewDecoder(rw io.ReadWriter) *Decoder {
	return &Decoder{rw: rw}
}

// State returns the current state of d.
func (d *Decoder) State() State { return d.state }

// Version returns the most recently received version byte.
func (d *Decoder) Version() byte { return d.version }

// Next returns the payload of the next version 1 message. Cycles with any
// other version are acknowledged and skipped.
//
// Next returns io.EOF if the peer closed the stream while d was awaiting a
// version byte. Any other failure is returned as is, or as a *ProtocolError
// if the stream ended or was malformed within a message. Once Next returns an
// error, d is Closed and every later call returns the same error.
func (d *Decoder) Next() ([]byte, error) {
	for {
		switch d.state {
		case AwaitingVersion:
			var v [1]byte
			if _, err := io.ReadFull(d.rw, v[:]); err != nil {
				if err != io.EOF {
					err = fmt.Errorf("livefeed: read version: %w", err)
				}
				return nil, d.close(err)
			}
			d.version = v[0]
			if _, err := d.rw.Write(v[:]); err != nil {
				return nil, d.close(
					fmt.Errorf("livefeed: echo version: %w", err))
			}
			if d.version == Version {
				d.state = AwaitingLength
			}

		case AwaitingLength:
			var l [4]byte
			if _, err := io.ReadFull(d.rw, l[:]); err != nil {
				return nil, d.fail(unexpectedEOF(err))
			}
			length := int32(binary.LittleEndian.Uint32(l[:]))
			if length < 0 {
				return nil, d.fail(fmt.Errorf("%w: %v",
					ErrNegativeLength, length))
			}
			if d.MaxMessageSize > 0 && length > d.MaxMessageSize {
				return nil, d.fail(fmt.Errorf("%w: %v > %v",
					ErrMessageTooLarge, length, d.MaxMessageSize))
			}
			d.length = int(length)
			d.payload = make([]byte, 0, minInt(d.length, readChunkSize))
			d.n = 0
			d.state = AwaitingPayload

		case AwaitingPayload:
			for d.n < d.length {
				if d.n == cap(d.payload) {
					d.grow()
				}
				n, err := d.rw.Read(d.payload[d.n:cap(d.payload)])
				d.n += n
				d.payload = d.payload[:d.n]
				if d.n == d.length {
					break
				}
				if err != nil {
					return nil, d.fail(unexpectedEOF(err))
				}
				if n == 0 {
					return nil, d.fail(io.ErrNoProgress)
				}
			}
			payload := d.payload
			d.payload = nil
			d.state = AwaitingVersion
			return payload, nil

		case Closed:
			if d.err == nil {
				return nil, io.EOF
			}
			return nil, d.err
		}
	}
}

// Remaining returns the number of payload bytes still expected while d is
// AwaitingPayload.
func (d *Decoder) Remaining() int {
	if d.state != AwaitingPayload {
		return 0
	}
	return d.length - d.n
}

// grow doubles the capacity of the payload buffer, up to the announced
// length.
func (d *Decoder) grow() {
	size := 2 * cap(d.payload)
	if size < readChunkSize {
		size = readChunkSize
	}
	size = minInt(size, d.length)
	payload := make([]byte, d.n, size)
	copy(payload, d.payload)
	d.payload = payload
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (d *Decoder) fail(err error) error {
	return d.close(&ProtocolError{State: d.state, Err: err})
}

func (d *Decoder) close(err error) error {
	d.state = Closed
	d.payload = nil
	d.err = err
	return err
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
