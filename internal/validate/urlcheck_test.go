package validate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWellFormed(t *testing.T) {
	c := NewURLChecker([]string{"fake-board.dev"}, false, 0)

	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"plain https", "https://boards.example.net/jobs/1", true},
		{"plain http", "http://boards.example.net/jobs/1", true},
		{"empty", "", false},
		{"fragment only", "#apply-now", false},
		{"no scheme", "boards.example.net/jobs/1", false},
		{"ftp scheme", "ftp://boards.example.net/jobs/1", false},
		{"placeholder example.com", "https://example.com/job/1", false},
		{"placeholder subdomain", "https://jobs.example.com/job/1", false},
		{"placeholder localhost", "http://localhost:8080/job/1", false},
		{"config placeholder", "https://fake-board.dev/job/1", false},
		{"similar but real host", "https://notexample.com/job/1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.WellFormed(tt.url))
		})
	}
}

func TestReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			w.WriteHeader(200)
		case "/gone":
			w.WriteHeader(404)
		default:
			w.WriteHeader(500)
		}
	}))
	defer srv.Close()

	c := NewURLChecker(nil, true, 2*time.Second)
	ctx := context.Background()

	assert.True(t, c.Reachable(ctx, srv.URL+"/ok"))
	assert.False(t, c.Reachable(ctx, srv.URL+"/gone"))
	assert.False(t, c.Reachable(ctx, srv.URL+"/boom"))
	assert.False(t, c.Reachable(ctx, "http://127.0.0.1:1/nothing-listens-here"))
}

func TestReachable_Disabled(t *testing.T) {
	c := NewURLChecker(nil, false, time.Second)
	assert.True(t, c.Reachable(context.Background(), "http://127.0.0.1:1/unreachable"))
}
