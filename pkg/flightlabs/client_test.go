package flightlabs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_RequiresAccessKey(t *testing.T) {
	_, err := NewClient("   ")
	require.Error(t, err)
}

func TestAirports_MapsPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/airports", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("access_key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"airport_name":"Queen Alia International","country_name":"Jordan","timezone":"Asia/Amman"},
			{"airport_name":"Heathrow","country_name":"United Kingdom","timezone":"Europe/London"},
			{"airport_name":"","country_name":"Nowhere","timezone":"Etc/UTC"},
			{"airport_name":"Indira Gandhi International","country_name":"India","timezone":"Asia/New_Delhi"}
		]`))
	}))
	defer srv.Close()

	client, err := NewClient("test-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	airports, err := client.Airports(context.Background())
	require.NoError(t, err)
	require.Len(t, airports, 3)

	assert.Equal(t, Airport{Name: "Queen Alia International", Country: "Jordan", City: "Amman"}, airports[0])
	assert.Equal(t, Airport{Name: "Heathrow", Country: "United Kingdom", City: "London"}, airports[1])
	assert.Equal(t, "New Delhi", airports[2].City)
}

func TestAirports_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"invalid access key"}`))
	}))
	defer srv.Close()

	client, err := NewClient("bad-key", WithBaseURL(srv.URL), WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = client.Airports(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
