package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPGenerator(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"title":"Spring sale","content":"Everything 20% off","hashtags":["sale"]}`))
	}))
	defer srv.Close()

	draft, err := NewHTTPGenerator(srv.URL, "key", 0).Generate(context.Background(), Prompt{Topic: "sale", Tone: "fun"})
	require.NoError(t, err)
	assert.Equal(t, "sale", got.Topic)
	assert.Equal(t, "fun", got.Tone)
	assert.Equal(t, Draft{Title: "Spring sale", Content: "Everything 20% off", Hashtags: []string{"sale"}}, draft)
}

func TestHTTPGeneratorErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, `{}`},
		{"empty draft", http.StatusOK, `{"hashtags":["x"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPGenerator(srv.URL, "", 0).Generate(context.Background(), Prompt{Topic: "x"})
			assert.Error(t, err)
		})
	}
}
