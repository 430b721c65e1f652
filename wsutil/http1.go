package wsutil

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kestrelhttp/kestrel/api"
)

// RequestParser reads one HTTP/1.1 request line, headers, and
// (Content-Length-bounded) body from a Stream.
type RequestParser struct{}

// ParseRequest implements api.RequestParser. bufferSize bounds the
// bufio.Reader used for the request line and headers.
func (RequestParser) ParseRequest(s api.Stream, bufferSize int) (*api.Request, error) {
	if bufferSize <= 0 {
		bufferSize = 4096
	}
	br := bufio.NewReaderSize(s, bufferSize)

	line, err := readCRLFLine(br)
	if err != nil {
		return nil, err
	}
	method, path, version, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}

	headers := api.Header{}
	for {
		hline, err := readCRLFLine(br)
		if err != nil {
			return nil, fmt.Errorf("wsutil: reading headers: %w", err)
		}
		if hline == "" {
			break
		}
		name, value, ok := strings.Cut(hline, ":")
		if !ok {
			return nil, fmt.Errorf("wsutil: malformed header line %q", hline)
		}
		headers.Add(name, strings.TrimSpace(value))
	}

	var body []byte
	if cl := headers.Get("Content-Length"); cl != "" {
		n, err := strconv.Atoi(strings.TrimSpace(cl))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("wsutil: invalid Content-Length %q", cl)
		}
		body = make([]byte, n)
		if _, err := io.ReadFull(br, body); err != nil {
			return nil, fmt.Errorf("wsutil: reading body: %w", err)
		}
	}

	rawPath, query, _ := strings.Cut(path, "?")
	return &api.Request{
		Method:   method,
		Path:     rawPath,
		RawQuery: query,
		Version:  version,
		Headers:  headers,
		Body:     body,
	}, nil
}

func readCRLFLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func parseRequestLine(line string) (method, path, version string, err error) {
	parts := strings.Fields(line)
	if len(parts) != 3 {
		return "", "", "", fmt.Errorf("wsutil: malformed request line %q", line)
	}
	return parts[0], parts[1], parts[2], nil
}

// ResponseEncoder serializes an api.Response as an HTTP/1.1 status line,
// headers, and body.
type ResponseEncoder struct{}

var statusText = map[int]string{
	101: "Switching Protocols",
	200: "OK",
	400: "Bad Request",
	404: "Not Found",
	405: "Method Not Allowed",
	500: "Internal Server Error",
}

// EncodeResponse implements api.ResponseEncoder.
func (ResponseEncoder) EncodeResponse(s api.Stream, r *api.Response) error {
	text, ok := statusText[r.StatusCode]
	if !ok {
		text = "Status"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", r.StatusCode, text)
	if r.Headers.Get("Content-Length") == "" {
		fmt.Fprintf(&b, "Content-Length: %d\r\n", len(r.Body))
	}
	for name, values := range r.Headers {
		for _, v := range values {
			fmt.Fprintf(&b, "%s: %s\r\n", canonicalHeaderName(name), v)
		}
	}
	b.WriteString("\r\n")

	if _, err := s.Write([]byte(b.String())); err != nil {
		return err
	}
	if len(r.Body) > 0 {
		if _, err := s.Write(r.Body); err != nil {
			return err
		}
	}
	return s.Flush()
}

func canonicalHeaderName(name string) string {
	parts := strings.Split(name, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + strings.ToLower(p[1:])
	}
	return strings.Join(parts, "-")
}
