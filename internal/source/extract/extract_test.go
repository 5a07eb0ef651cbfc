package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"jobscout-engine/internal/source"
)

const jobPage = `<!doctype html>
<html><head>
  <meta property="og:site_name" content="Acme Careers">
</head><body>
  <h1>  Senior   Drupal Developer </h1>
  <div class="company-name">Acme Corp</div>
  <span class="location">Berlin, Germany</span>
  <div class="salary-range">€70,000 - €95,000</div>
  <time datetime="2026-08-10T09:00:00Z">Aug 10</time>
  <div class="job-description">Build and maintain Drupal 10 sites. Symfony, Twig, Composer.</div>
</body></html>`

func TestExtract_FullPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, jobPage)
	}))
	defer srv.Close()

	g := NewGeneric(zap.NewNop())
	rec, err := g.Extract(context.Background(), "A", srv.URL+"/jobs/1")
	require.NoError(t, err)

	assert.Equal(t, "Senior Drupal Developer", rec.Title)
	assert.Equal(t, "Acme Corp", rec.Company)
	assert.Equal(t, "Berlin, Germany", rec.Location)
	assert.Equal(t, "€70,000 - €95,000", rec.SalaryText)
	assert.Contains(t, rec.Description, "Drupal 10")
	assert.Equal(t, "A", rec.SourceID)
	assert.Equal(t, srv.URL+"/jobs/1", rec.URL)
	require.NotNil(t, rec.PostedAt)
	assert.Equal(t, time.Date(2026, 8, 10, 9, 0, 0, 0, time.UTC), rec.PostedAt.UTC())
	assert.False(t, rec.FetchedAt.IsZero())
}

func TestExtract_FallbacksWithoutSelectors(t *testing.T) {
	page := `<html><head>
      <meta property="og:title" content="Drupal Developer">
    </head><body><p>Drupal work at a small shop.</p></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	g := NewGeneric(zap.NewNop())
	rec, err := g.Extract(context.Background(), "A", srv.URL+"/jobs/2")
	require.NoError(t, err)

	assert.Equal(t, "Drupal Developer", rec.Title)
	// company falls back to the host when the page names none
	assert.Equal(t, "127", rec.Company)
	assert.Contains(t, rec.Description, "Drupal work")
}

func TestExtract_NoTitleIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>This page has no posting.</p></body></html>`)
	}))
	defer srv.Close()

	g := NewGeneric(zap.NewNop())
	_, err := g.Extract(context.Background(), "A", srv.URL+"/jobs/3")
	assert.True(t, errors.Is(err, source.ErrNotFound))
}

func TestExtract_HTTPErrors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		notFound bool
		retry    bool
	}{
		{"gone page", http.StatusNotFound, true, false},
		{"server error", http.StatusInternalServerError, false, true},
		{"forbidden", http.StatusForbidden, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			g := NewGeneric(zap.NewNop())
			_, err := g.Extract(context.Background(), "A", srv.URL)
			require.Error(t, err)
			assert.Equal(t, tt.notFound, errors.Is(err, source.ErrNotFound))
			if !tt.notFound {
				assert.Equal(t, tt.retry, source.IsRetryable(err))
			}
		})
	}
}

func TestExtract_DescriptionCapped(t *testing.T) {
	long := strings.Repeat("drupal modules and themes ", 2000)
	page := fmt.Sprintf(`<html><body><h1>Drupal Dev</h1>
      <div class="job-description">%s</div></body></html>`, long)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	g := NewGeneric(zap.NewNop())
	rec, err := g.Extract(context.Background(), "A", srv.URL)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(rec.Description), maxDescChar)
}

func TestTruncateRunes(t *testing.T) {
	// a multi-byte rune straddling the cut must be dropped whole
	s := strings.Repeat("ü", 10) // 20 bytes
	for max := 0; max <= 20; max++ {
		got := truncateRunes(s, max)
		assert.LessOrEqual(t, len(got), max)
		assert.True(t, utf8.ValidString(got), "cut at %d split a rune", max)
	}
	assert.Equal(t, "abc", truncateRunes("abc", 5))
	assert.Equal(t, "日本", truncateRunes("日本語", 7))
}
