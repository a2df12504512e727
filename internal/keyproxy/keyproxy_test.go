package keyproxy

import (
	"bytes"
	"errors"
	"io"
	"net"
	"path/filepath"
	"testing"
)

// serveOnce runs a scripted custodian on a fresh socket: it captures the
// full request and answers with the given raw response bytes.
func serveOnce(t *testing.T, response []byte) (string, <-chan []byte) {
	t.Helper()

	sock := filepath.Join(t.TempDir(), "custodian.sock")
	l, err := net.Listen("unix", sock)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { l.Close() })

	reqCh := make(chan []byte, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		req, _ := io.ReadAll(conn)
		reqCh <- req
		if len(response) > 0 {
			conn.Write(response)
		}
	}()

	return sock, reqCh
}

func TestSignWireFormat(t *testing.T) {
	operand := []byte("bytes-to-sign")
	sock, reqCh := serveOnce(t, []byte{0x00, 0x03, 's', 'i', 'g'})

	ctx := NewContext(7, sock)
	result, err := ctx.Sign(operand)
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if !bytes.Equal(result, []byte("sig")) {
		t.Errorf("Sign result = %q, want %q", result, "sig")
	}

	want := append([]byte{7, 'S'}, operand...)
	if got := <-reqCh; !bytes.Equal(got, want) {
		t.Errorf("request on wire = %v, want %v", got, want)
	}
}

func TestDecryptWireFormat(t *testing.T) {
	sock, reqCh := serveOnce(t, []byte{0x00, 0x02, 'p', 't'})

	ctx := NewContext(0, sock)
	result, err := ctx.Decrypt([]byte{0xde, 0xad})
	if err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if !bytes.Equal(result, []byte("pt")) {
		t.Errorf("Decrypt result = %q, want %q", result, "pt")
	}

	want := []byte{0, 'D', 0xde, 0xad}
	if got := <-reqCh; !bytes.Equal(got, want) {
		t.Errorf("request on wire = %v, want %v", got, want)
	}
}

func TestShortResponseBody(t *testing.T) {
	// Length field promises 5 bytes, body delivers 2; no partial result
	// may surface.
	sock, _ := serveOnce(t, []byte{0x00, 0x05, 'a', 'b'})

	ctx := NewContext(1, sock)
	result, err := ctx.Sign([]byte("operand"))
	if !errors.Is(err, ErrDelegation) {
		t.Fatalf("Sign error = %v, want ErrDelegation", err)
	}
	if result != nil {
		t.Errorf("Sign returned a partial result %v", result)
	}
}

func TestShortLengthField(t *testing.T) {
	sock, _ := serveOnce(t, []byte{0x00})

	ctx := NewContext(1, sock)
	if _, err := ctx.Sign([]byte("x")); !errors.Is(err, ErrDelegation) {
		t.Errorf("Sign error = %v, want ErrDelegation", err)
	}
}

func TestNoResponse(t *testing.T) {
	sock, _ := serveOnce(t, nil)

	ctx := NewContext(1, sock)
	if _, err := ctx.Decrypt([]byte("x")); !errors.Is(err, ErrDelegation) {
		t.Errorf("Decrypt error = %v, want ErrDelegation", err)
	}
}

func TestConnectFailure(t *testing.T) {
	ctx := NewContext(0, filepath.Join(t.TempDir(), "absent.sock"))
	if _, err := ctx.Sign([]byte("x")); !errors.Is(err, ErrDelegation) {
		t.Errorf("Sign error = %v, want ErrDelegation", err)
	}
}

type recordedFailure struct {
	keyIndex uint8
	op       string
}

type recordingSink struct {
	failures []recordedFailure
}

func (r *recordingSink) LogDelegationFailure(keyIndex uint8, op string, err error) {
	r.failures = append(r.failures, recordedFailure{keyIndex, op})
}

func TestFailuresReachAuditSink(t *testing.T) {
	sink := &recordingSink{}
	SetAuditSink(sink)
	t.Cleanup(func() { SetAuditSink(nil) })

	absent := filepath.Join(t.TempDir(), "absent.sock")

	if _, err := NewContext(4, absent).Sign([]byte("x")); !errors.Is(err, ErrDelegation) {
		t.Fatalf("Sign error = %v, want ErrDelegation", err)
	}
	if _, err := NewContext(9, absent).Decrypt([]byte("x")); !errors.Is(err, ErrDelegation) {
		t.Fatalf("Decrypt error = %v, want ErrDelegation", err)
	}

	want := []recordedFailure{{4, "sign"}, {9, "decrypt"}}
	if len(sink.failures) != len(want) {
		t.Fatalf("audit sink saw %d failures, want %d", len(sink.failures), len(want))
	}
	for i, f := range sink.failures {
		if f != want[i] {
			t.Errorf("audit failure %d = %+v, want %+v", i, f, want[i])
		}
	}
}

func TestSuccessfulRoundTripNotAudited(t *testing.T) {
	sink := &recordingSink{}
	SetAuditSink(sink)
	t.Cleanup(func() { SetAuditSink(nil) })

	sock, _ := serveOnce(t, []byte{0x00, 0x01, 'z'})
	if _, err := NewContext(0, sock).Sign([]byte("operand")); err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if len(sink.failures) != 0 {
		t.Errorf("audit sink saw %d failures on a successful round trip", len(sink.failures))
	}
}

func TestEmptyResponseBody(t *testing.T) {
	sock, _ := serveOnce(t, []byte{0x00, 0x00})

	ctx := NewContext(3, sock)
	result, err := ctx.Sign([]byte("operand"))
	if err != nil {
		t.Fatalf("Sign failed: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("Sign result = %v, want empty", result)
	}
}
