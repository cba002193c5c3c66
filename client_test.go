package threadpool

import (
	"bufio"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadResponse(t *testing.T) {
	raw := string(FormatResponse(StatusNotFound, []byte("<h1>oops</h1>")))
	resp, err := ReadResponse(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, resp.Status)
	assert.Equal(t, 13, resp.ContentLength)
	assert.Equal(t, "<h1>oops</h1>", string(resp.Body))
}

func TestReadResponseWithoutContentLength(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\n\r\nrest of stream"
	resp, err := ReadResponse(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, "rest of stream", string(resp.Body))
	assert.Equal(t, len("rest of stream"), resp.ContentLength)
}

func TestReadResponseMalformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"HTTP/1.1 200 OK\r\nbroken header\r\n\r\n",
		"HTTP/1.1 200 OK\r\nContent-Length: x\r\n\r\n",
		"HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\nshort",
	} {
		_, err := ReadResponse(bufio.NewReader(strings.NewReader(raw)))
		assert.Error(t, err, "input %q", raw)
	}
}

func TestFetchSendsBareRequestLine(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		var request strings.Builder
		for !strings.HasSuffix(request.String(), "\r\n\r\n") {
			b, err := r.ReadByte()
			if err != nil {
				return
			}
			request.WriteByte(b)
		}
		received <- request.String()
		_, _ = conn.Write(FormatResponse(StatusOK, []byte("ok")))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := Fetch(ctx, ln.Addr().String(), "/sleep")
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, "GET /sleep HTTP/1.1\r\n\r\n", <-received)
}
