package server

import (
	"bufio"
	"crypto/sha1"
	"encoding/base64"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/kestrelhttp/kestrel/config"
	"github.com/kestrelhttp/kestrel/reqctx"
	"github.com/kestrelhttp/kestrel/wsutil"
)

func dialLocal(t *testing.T, addr string) net.Conn {
	t.Helper()
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial %s: %v", addr, err)
	}
	return conn
}

func TestServerServesPlainRequest(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	srv := New(cfg, wsutil.DefaultCollaborators())
	srv.Route("/hello", func(ctx *reqctx.Context) {
		resp := ctx.Response()
		resp.StatusCode = 200
		resp.Headers.Set("Content-Type", "text/plain")
		resp.Body = []byte("hello")
	})

	ctrl, err := srv.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer func() {
		ctrl.Shutdown()
		ctrl.Wait()
	}()

	addr := srv.listener.Addr().String()
	conn := dialLocal(t, addr)
	defer conn.Close()

	_, err = conn.Write([]byte("GET /hello HTTP/1.1\r\nHost: test\r\nConnection: close\r\n\r\n"))
	if err != nil {
		t.Fatalf("write request: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	if status != "HTTP/1.1 200 OK\r\n" {
		t.Fatalf("status line = %q", status)
	}
}

func TestServerWebSocketUpgrade(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	srv := New(cfg, wsutil.DefaultCollaborators())
	srv.Route("/ws", func(ctx *reqctx.Context) {
		if err := ctx.UpgradeToWS(); err != nil {
			ctx.Response().StatusCode = 400
			return
		}
	})

	ctrl, err := srv.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	defer func() {
		ctrl.Shutdown()
		ctrl.Wait()
	}()

	addr := srv.listener.Addr().String()
	conn := dialLocal(t, addr)
	defer conn.Close()

	clientKey := "dGhlIHNhbXBsZSBub25jZQ=="
	req := "GET /ws HTTP/1.1\r\n" +
		"Host: test\r\n" +
		"Upgrade: websocket\r\n" +
		"Connection: Upgrade\r\n" +
		"Sec-WebSocket-Key: " + clientKey + "\r\n" +
		"Sec-WebSocket-Version: 13\r\n\r\n"
	if _, err := conn.Write([]byte(req)); err != nil {
		t.Fatalf("write upgrade request: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		t.Fatalf("read status line: %v", err)
	}
	if status != "HTTP/1.1 101 Switching Protocols\r\n" {
		t.Fatalf("status line = %q", status)
	}

	wantAccept := expectedAcceptKey(clientKey)
	gotAccept := ""
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			t.Fatalf("read header: %v", err)
		}
		if line == "\r\n" {
			break
		}
		const prefix = "sec-websocket-accept:"
		if len(line) > len(prefix) && strings.EqualFold(line[:len(prefix)], prefix) {
			gotAccept = strings.TrimSpace(line[len(prefix):])
		}
	}
	if gotAccept != wantAccept {
		t.Fatalf("Sec-WebSocket-Accept = %q, want %q", gotAccept, wantAccept)
	}
}

func expectedAcceptKey(clientKey string) string {
	h := sha1.New()
	h.Write([]byte(clientKey))
	h.Write([]byte("258EAFA5-E914-47DA-95CA-C5AB0DC85B11"))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
