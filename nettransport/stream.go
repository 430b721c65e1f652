// Package nettransport adapts a real net.Conn to api.Stream, the byte
// channel the engine reads requests from and writes responses to.
//
// Grounded on the teacher's lowlevel/server/listener.go
// bufferedConnTransport: a bufio.Reader wraps the raw connection so bytes
// read during a prior phase (e.g. request parsing) are never lost to a
// later one, and Send/Recv become plain io.Reader/io.Writer calls instead
// of the teacher's zero-copy buffer-pool API, since the spec's Stream
// contract is a plain byte channel.
package nettransport

import (
	"bufio"
	"net"
	"time"

	"github.com/kestrelhttp/kestrel/api"
)

// ConnStream adapts a net.Conn to api.Stream. Reads go through an internal
// bufio.Reader so a short read during handshake or request parsing never
// drops bytes belonging to the next logical read.
type ConnStream struct {
	conn net.Conn
	br   *bufio.Reader
	bw   *bufio.Writer
}

// NewConnStream wraps conn with bufSize-sized read/write buffers.
func NewConnStream(conn net.Conn, bufSize int) *ConnStream {
	if bufSize <= 0 {
		bufSize = 4096
	}
	return &ConnStream{
		conn: conn,
		br:   bufio.NewReaderSize(conn, bufSize),
		bw:   bufio.NewWriterSize(conn, bufSize),
	}
}

// Read implements io.Reader by delegating to the buffered reader, so bytes
// already pulled off the wire during an earlier ParseRequest call are
// observed before new bytes are requested from the OS.
func (s *ConnStream) Read(p []byte) (int, error) {
	return s.br.Read(p)
}

// Write implements io.Writer via the buffered writer; callers must invoke
// Flush to guarantee delivery.
func (s *ConnStream) Write(p []byte) (int, error) {
	return s.bw.Write(p)
}

// PeerAddr returns the remote address string, used for logging and
// Context.RemoteAddr.
func (s *ConnStream) PeerAddr() string {
	return s.conn.RemoteAddr().String()
}

// SendBodyConditional writes body directly; WebSocket framing is the
// caller's responsibility (Context.SendBody invokes the FrameEncoder
// collaborator before reaching the stream), so isWS has no bearing on the
// write itself here.
func (s *ConnStream) SendBodyConditional(body []byte, isWS bool) error {
	_, err := s.bw.Write(body)
	return err
}

// Flush pushes buffered writes to the OS.
func (s *ConnStream) Flush() error {
	return s.bw.Flush()
}

// SetReadDeadline arms or clears the connection's read deadline.
func (s *ConnStream) SetReadDeadline(t time.Time) error {
	return s.conn.SetReadDeadline(t)
}

// Close closes the underlying connection.
func (s *ConnStream) Close() error {
	return s.conn.Close()
}

// ApplyTCPOptions sets TCP_NODELAY, SO_LINGER, and IP TTL on conn when it is
// a *net.TCPConn, mirroring the per-connection socket tuning the teacher's
// listener applies via its NUMA/affinity adapters but scoped to the plain
// socket options this framework's Config exposes.
func ApplyTCPOptions(conn net.Conn, noDelay bool, linger *time.Duration, ttl *int) error {
	tc, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}
	if err := tc.SetNoDelay(noDelay); err != nil {
		return err
	}
	if linger != nil {
		if err := tc.SetLinger(int(linger.Seconds())); err != nil {
			return err
		}
	}
	if ttl != nil {
		return setIPTTL(tc, *ttl)
	}
	return nil
}
