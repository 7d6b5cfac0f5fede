package uptime

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActiveAgentsReturnsKeySet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "hunter2", r.URL.Query().Get("secret"))
		w.Write([]byte(`{"vm-1": {"region": "jp"}, "vm-2": {}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "hunter2")
	ids, err := c.ActiveAgents()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"vm-1", "vm-2"}, ids)
}

func TestActiveAgentsEmptyFleet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	ids, err := NewClient(srv.URL, "s").ActiveAgents()
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestActiveAgentsRejectsNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "s").ActiveAgents()
	assert.Error(t, err)
}

func TestActiveAgentsRejectsMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["not", "an", "object"]`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "s").ActiveAgents()
	assert.Error(t, err)
}
