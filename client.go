package threadpool

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
)

// Response 解析后的简易 HTTP 响应
type Response struct {
	Status        string
	ContentLength int
	Body          []byte
}

// Fetch 发送 "GET <path> HTTP/1.1" 并读取完整响应
func Fetch(ctx context.Context, addr, path string) (*Response, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	request := fmt.Sprintf("GET %s HTTP/1.1\r\n\r\n", path)
	if _, err := io.WriteString(conn, request); err != nil {
		return nil, err
	}
	return ReadResponse(bufio.NewReader(conn))
}

// ReadResponse 解析状态行、Content-Length 和正文
func ReadResponse(r *bufio.Reader) (*Response, error) {
	status, err := readLine(r)
	if err != nil {
		return nil, fmt.Errorf("read status line: %w", err)
	}

	resp := &Response{Status: status, ContentLength: -1}
	for {
		line, err := readLine(r)
		if err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		if line == "" {
			break
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("malformed header %q", line)
		}
		if strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid Content-Length %q", value)
			}
			resp.ContentLength = n
		}
	}

	if resp.ContentLength < 0 {
		resp.Body, err = io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read body: %w", err)
		}
		resp.ContentLength = len(resp.Body)
		return resp, nil
	}

	resp.Body = make([]byte, resp.ContentLength)
	if _, err := io.ReadFull(r, resp.Body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return resp, nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
