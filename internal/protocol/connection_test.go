package protocol

import (
	"encoding/binary"
	"errors"
	"net"
	"testing"
)

func pipeConns(t *testing.T) (client, server net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	type result struct {
		conn net.Conn
		err  error
	}
	acceptCh := make(chan result, 1)
	go func() {
		c, err := ln.Accept()
		acceptCh <- result{c, err}
	}()

	client, err = net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	res := <-acceptCh
	if res.err != nil {
		t.Fatalf("accept: %v", res.err)
	}
	return client, res.conn
}

func writeHello(t *testing.T, conn net.Conn, format uint16) {
	t.Helper()
	buf := make([]byte, helloSize)
	copy(buf, MagicNumber)
	off := len(MagicNumber)
	copy(buf[off:], FrameworkVersion[:])
	off += 3
	binary.BigEndian.PutUint16(buf[off:], ProtocolVersion)
	off += 2
	binary.BigEndian.PutUint16(buf[off:], format)
	if _, err := conn.Write(buf); err != nil {
		t.Fatalf("write hello: %v", err)
	}
}

func TestHandshakeAccepted(t *testing.T) {
	client, server := pipeConns(t)
	defer client.Close()
	defer server.Close()

	writeHello(t, client, FormatCBOR)

	conn, err := Accept(server)
	if err != nil {
		t.Fatalf("expected handshake to succeed, got %v", err)
	}
	_ = conn
}

func TestHandshakeRejectsBadMagic(t *testing.T) {
	client, server := pipeConns(t)
	defer client.Close()
	defer server.Close()

	buf := make([]byte, helloSize)
	copy(buf, "NotCriterio")
	client.Write(buf)

	_, err := Accept(server)
	var protoErr *Error
	if err == nil {
		t.Fatal("expected an error for bad magic")
	}
	if !errors.As(err, &protoErr) || protoErr.Kind != ErrKindHelloFailed {
		t.Errorf("expected HelloFailed, got %v", err)
	}
}

func TestHandshakeRejectsUnknownFormat(t *testing.T) {
	client, server := pipeConns(t)
	defer client.Close()
	defer server.Close()

	writeHello(t, client, 0xFFFF)

	_, err := Accept(server)
	var protoErr *Error
	if !errors.As(err, &protoErr) || protoErr.Kind != ErrKindHelloFailed {
		t.Errorf("expected HelloFailed for unknown format, got %v", err)
	}
}

func TestFramingRoundTrip(t *testing.T) {
	client, server := pipeConns(t)
	defer client.Close()
	defer server.Close()

	writeHello(t, client, FormatCBOR)
	conn, err := Accept(server)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}

	go func() {
		clientConn := &Connection{conn: client}
		clientConn.Send(OutgoingMessage{Kind: OutRunBenchmark})
	}()

	msg, err := conn.Recv()
	if err != nil {
		t.Fatalf("recv: %v", err)
	}
	if msg == nil {
		t.Fatal("expected a message, got nil (EOF)")
	}
}

func TestRecvReturnsNilOnCleanEOF(t *testing.T) {
	client, server := pipeConns(t)
	defer server.Close()

	writeHello(t, client, FormatCBOR)
	conn, err := Accept(server)
	if err != nil {
		t.Fatalf("handshake: %v", err)
	}
	client.Close()

	msg, err := conn.Recv()
	if err != nil {
		t.Fatalf("expected clean EOF to be nil error, got %v", err)
	}
	if msg != nil {
		t.Errorf("expected nil message on EOF, got %+v", msg)
	}
}
