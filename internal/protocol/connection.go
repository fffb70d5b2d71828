package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/fxamacker/cbor/v2"
)

// MagicNumber is the fixed prefix every child writes before any framed
// message, identifying it as speaking this protocol.
const MagicNumber = "Criterion"

// ProtocolVersion is the wire protocol version this implementation speaks.
const ProtocolVersion = 1

// FormatCBOR is the only recognised payload format tag.
const FormatCBOR = 1

// helloSize is the byte length of the fixed handshake prefix: magic (9) +
// semver (3) + protocol version (2, BE) + format tag (2, BE).
const helloSize = len(MagicNumber) + 3 + 2 + 2

// ErrorKind discriminates the fatal error conditions a Connection can
// surface.
type ErrorKind int

const (
	ErrKindHelloFailed ErrorKind = iota
	ErrKindSerialization
	ErrKindMessageIO
	ErrKindUnexpectedMessage
)

// Error is a Connection-level fault. It wraps an underlying cause when one
// exists.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// FrameworkVersion is the three-byte semver the handshake reports, mirroring
// the reference tool's own version stamp.
var FrameworkVersion = [3]byte{0, 3, 5}

// Connection wraps one accepted TCP socket after a successful handshake. It
// owns framed send/recv for the lifetime of one benchmark child.
type Connection struct {
	conn net.Conn
}

// Accept performs the handshake on a freshly accepted socket: it reads the
// fixed-size hello prefix, validates the magic number, and checks the
// format tag. The parent never sends a hello of its own.
func Accept(conn net.Conn) (*Connection, error) {
	buf := make([]byte, helloSize)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return nil, &Error{Kind: ErrKindHelloFailed, Msg: "failed to read hello", Err: err}
	}

	magicLen := len(MagicNumber)
	if string(buf[:magicLen]) != MagicNumber {
		return nil, &Error{Kind: ErrKindHelloFailed, Msg: "Not connected to a Criterion.rs benchmark"}
	}

	versionOff := magicLen + 3 // skip the three semver bytes; we don't enforce a match
	formatOff := versionOff + 2
	_ = binary.BigEndian.Uint16(buf[versionOff:formatOff]) // protocol version, not enforced
	format := binary.BigEndian.Uint16(buf[formatOff : formatOff+2])

	if format != FormatCBOR {
		return nil, &Error{Kind: ErrKindHelloFailed, Msg: "Unknown format"}
	}

	return &Connection{conn: conn}, nil
}

// Close closes the underlying socket.
func (c *Connection) Close() error {
	return c.conn.Close()
}

// Send encodes msg as CBOR and writes it as a single length-prefixed frame.
func (c *Connection) Send(msg any) error {
	payload, err := cbor.Marshal(msg)
	if err != nil {
		return &Error{Kind: ErrKindSerialization, Msg: "failed to encode message", Err: err}
	}

	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))

	frame := append(header, payload...)
	if _, err := c.conn.Write(frame); err != nil {
		return &Error{Kind: ErrKindMessageIO, Msg: "failed to write frame", Err: err}
	}
	return nil
}

// Recv reads and decodes one length-prefixed CBOR frame into an
// IncomingMessage. A clean EOF on the length read is reported by returning
// (nil, nil): "no more messages". Any other error is fatal.
func (c *Connection) Recv() (*IncomingMessage, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(c.conn, header); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &Error{Kind: ErrKindMessageIO, Msg: "failed to read frame length", Err: err}
	}

	length := binary.BigEndian.Uint32(header)
	payload := make([]byte, length)
	if _, err := io.ReadFull(c.conn, payload); err != nil {
		return nil, &Error{Kind: ErrKindMessageIO, Msg: "failed to read frame payload", Err: err}
	}

	var msg IncomingMessage
	if err := cbor.Unmarshal(payload, &msg); err != nil {
		return nil, &Error{Kind: ErrKindSerialization, Msg: "failed to decode message", Err: err}
	}
	return &msg, nil
}
