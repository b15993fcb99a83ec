package loki

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushEventJSON(t *testing.T) {
	var got PushRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/loki/api/v1/push", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	raw := []byte(`{"tenantId":"t1","eventType":"auth:login:succeeded","source":"identity","createdAt":"2026-01-02T03:04:05Z"}`)
	require.NoError(t, PushEventJSON(context.Background(), srv.URL, raw))

	require.Len(t, got.Streams, 1)
	stream := got.Streams[0]
	require.Equal(t, "identity", stream.Stream["job"])
	require.Equal(t, "t1", stream.Stream["tenant_id"])
	require.Equal(t, "auth:login:succeeded", stream.Stream["event_type"])
	require.Len(t, stream.Values, 1)
	require.Equal(t, string(raw), stream.Values[0][1])
}

func TestPushEvent_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := PushEventJSON(context.Background(), srv.URL, []byte(`{}`))
	require.Error(t, err)
}

func TestPushEvent_EmptyURL(t *testing.T) {
	require.Error(t, PushEventJSON(context.Background(), "", []byte(`{}`)))
}
