package rpc

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcPipe struct {
	in  io.WriteCloser
	out *bufio.Reader
}

func startServer(t *testing.T, register func(*Server)) *rpcPipe {
	t.Helper()
	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	srv := NewServer("1", inR, outW, zerolog.Nop())
	register(srv)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		inW.Close()
	})
	go srv.Serve(ctx)

	return &rpcPipe{in: inW, out: bufio.NewReader(outR)}
}

func (p *rpcPipe) call(t *testing.T, line string) Response {
	t.Helper()
	_, err := io.WriteString(p.in, line+"\n")
	require.NoError(t, err)

	type read struct {
		resp Response
		err  error
	}
	ch := make(chan read, 1)
	go func() {
		raw, err := p.out.ReadBytes('\n')
		if err != nil {
			ch <- read{err: err}
			return
		}
		var resp Response
		ch <- read{resp: resp, err: json.Unmarshal(raw, &resp)}
	}()
	select {
	case r := <-ch:
		require.NoError(t, r.err)
		return r.resp
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for response")
		return Response{}
	}
}

func TestServeRoundTrip(t *testing.T) {
	p := startServer(t, func(s *Server) {
		s.Register("Echo", func(_ context.Context, params json.RawMessage) (any, *Error) {
			var in map[string]string
			_ = json.Unmarshal(params, &in)
			return in, nil
		})
	})

	resp := p.call(t, `{"jsonrpc":"2.0","id":1,"method":"Echo","params":{"msg":"hi"}}`)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `1`, string(resp.ID))
	result, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	assert.JSONEq(t, `{"msg":"hi"}`, string(result))
}

func TestServeMethodNotFound(t *testing.T) {
	p := startServer(t, func(s *Server) {})
	resp := p.call(t, `{"jsonrpc":"2.0","id":2,"method":"Nope"}`)
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "method not found")
	assert.Equal(t, rpcErrorCode, resp.Error.Code)
}

func TestServeInvalidJSON(t *testing.T) {
	p := startServer(t, func(s *Server) {})
	resp := p.call(t, `{not json`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid json", resp.Error.Message)
}

func TestServeVersionChecks(t *testing.T) {
	p := startServer(t, func(s *Server) {
		s.Register("Echo", func(_ context.Context, _ json.RawMessage) (any, *Error) { return "ok", nil })
	})

	resp := p.call(t, `{"jsonrpc":"1.0","id":3,"method":"Echo"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "invalid jsonrpc version", resp.Error.Message)

	resp = p.call(t, `{"jsonrpc":"2.0","id":4,"method":"Echo","api_version":"99"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "incompatible api_version", resp.Error.Message)
}

func TestServeHandlerError(t *testing.T) {
	p := startServer(t, func(s *Server) {
		s.Register("Boom", func(_ context.Context, _ json.RawMessage) (any, *Error) {
			return nil, &Error{Message: "it broke", Data: map[string]string{"error_code": "MODEL_TRANSIENT"}}
		})
	})

	resp := p.call(t, `{"jsonrpc":"2.0","id":5,"method":"Boom"}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "it broke", resp.Error.Message)
	data, err := json.Marshal(resp.Error.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"error_code":"MODEL_TRANSIENT"}`, string(data))
}

func TestNotificationsGetNoResponse(t *testing.T) {
	p := startServer(t, func(s *Server) {
		s.Register("Fire", func(_ context.Context, _ json.RawMessage) (any, *Error) { return "ignored", nil })
		s.Register("Echo", func(_ context.Context, _ json.RawMessage) (any, *Error) { return "ok", nil })
	})

	// No id: the handler runs but nothing is written back. The next
	// response on the wire belongs to the follow-up call.
	_, err := io.WriteString(p.in, `{"jsonrpc":"2.0","method":"Fire"}`+"\n")
	require.NoError(t, err)

	resp := p.call(t, `{"jsonrpc":"2.0","id":6,"method":"Echo"}`)
	require.Nil(t, resp.Error)
	assert.JSONEq(t, `6`, string(resp.ID))
}
