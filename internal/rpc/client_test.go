package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestCallFallsBackInOrder(t *testing.T) {
	t.Parallel()

	var thirdHits int
	first := httptest.NewServer(jsonHandler(http.StatusInternalServerError, "boom"))
	defer first.Close()
	second := httptest.NewServer(jsonHandler(http.StatusOK, `{"jsonrpc":"2.0","result":{"ok":true},"id":"1"}`))
	defer second.Close()
	third := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		thirdHits++
		_, _ = w.Write([]byte(`{"result":{}}`))
	}))
	defer third.Close()

	client := New([]string{first.URL, second.URL, third.URL}, nil, nil)

	resp, err := client.Call(context.Background(), "condenser_api.get_content", []any{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, second.URL, resp.Endpoint)
	assert.JSONEq(t, `{"ok":true}`, string(resp.Result))
	assert.Zero(t, thirdHits, "first good answer must stop iteration")
}

func TestCallEmptyEndpointList(t *testing.T) {
	t.Parallel()

	client := New(nil, nil, nil)

	_, err := client.Call(context.Background(), "any.method", nil)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Empty(t, exhausted.Attempts)
}

func TestCallAllEndpointsFail(t *testing.T) {
	t.Parallel()

	first := httptest.NewServer(jsonHandler(http.StatusBadGateway, ""))
	defer first.Close()
	second := httptest.NewServer(jsonHandler(http.StatusOK, "not json at all"))
	defer second.Close()

	client := New([]string{first.URL, second.URL}, nil, nil)

	_, err := client.Call(context.Background(), "m", nil)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Len(t, exhausted.Attempts, 2)
	assert.Equal(t, first.URL, exhausted.Attempts[0].Endpoint)
	assert.Equal(t, second.URL, exhausted.Attempts[1].Endpoint)
}

func TestCallMissingResultFieldIsFailure(t *testing.T) {
	t.Parallel()

	// Valid JSON without a result key must not pass for "empty data".
	bad := httptest.NewServer(jsonHandler(http.StatusOK, `{"jsonrpc":"2.0","id":"1"}`))
	defer bad.Close()
	good := httptest.NewServer(jsonHandler(http.StatusOK, `{"result":[1,2]}`))
	defer good.Close()

	client := New([]string{bad.URL, good.URL}, nil, nil)

	resp, err := client.Call(context.Background(), "m", nil)
	require.NoError(t, err)
	assert.Equal(t, good.URL, resp.Endpoint)
}

func TestCallNullResultIsSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(jsonHandler(http.StatusOK, `{"result":null,"id":"1"}`))
	defer server.Close()

	client := New([]string{server.URL}, nil, nil)

	resp, err := client.Call(context.Background(), "m", nil)
	require.NoError(t, err)
	assert.Equal(t, "null", string(resp.Result))
}

func TestCallErrorObjectTriggersFallback(t *testing.T) {
	t.Parallel()

	failing := httptest.NewServer(jsonHandler(http.StatusOK,
		`{"jsonrpc":"2.0","error":{"code":-32000,"message":"kaboom"},"id":"1"}`))
	defer failing.Close()

	client := New([]string{failing.URL}, nil, nil)

	_, err := client.Call(context.Background(), "m", nil)
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Len(t, exhausted.Attempts, 1)

	var nodeErr *NodeError
	require.True(t, errors.As(exhausted.Attempts[0].Cause, &nodeErr))
	assert.Equal(t, -32000, nodeErr.Code)
	assert.Equal(t, "kaboom", nodeErr.Message)
}

func TestCallSendsFreshIDPerAttempt(t *testing.T) {
	t.Parallel()

	var ids []string
	record := func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var env struct {
			JSONRPC string `json:"jsonrpc"`
			Method  string `json:"method"`
			ID      string `json:"id"`
		}
		require.NoError(t, json.Unmarshal(raw, &env))
		assert.Equal(t, "2.0", env.JSONRPC)
		assert.Equal(t, "test.method", env.Method)
		ids = append(ids, env.ID)
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	first := httptest.NewServer(http.HandlerFunc(record))
	defer first.Close()
	second := httptest.NewServer(http.HandlerFunc(record))
	defer second.Close()

	client := New([]string{first.URL, second.URL}, nil, nil)

	_, err := client.Call(context.Background(), "test.method", nil)
	require.Error(t, err)
	require.Len(t, ids, 2)
	assert.NotEmpty(t, ids[0])
	assert.NotEqual(t, ids[0], ids[1])
}

func TestCallEmptyMethod(t *testing.T) {
	t.Parallel()

	client := New([]string{"http://localhost:1"}, nil, nil)
	_, err := client.Call(context.Background(), "", nil)
	require.Error(t, err)
}

func TestCallInto(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(jsonHandler(http.StatusOK, `{"result":{"name":"chary"}}`))
	defer server.Close()

	client := New([]string{server.URL}, nil, nil)

	var out struct {
		Name string `json:"name"`
	}
	endpoint, err := client.CallInto(context.Background(), "m", nil, &out)
	require.NoError(t, err)
	assert.Equal(t, server.URL, endpoint)
	assert.Equal(t, "chary", out.Name)
}
