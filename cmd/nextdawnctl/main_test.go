package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssupercloud/nextdawn/internal/models"
	"github.com/ssupercloud/nextdawn/internal/storage/sqlite"
)

const eventJSON = `{
	"id": "516710",
	"title": "Fed rate cut in December?",
	"slug": "fed-rate-cut-in-december",
	"endDate": "2026-12-31T00:00:00Z",
	"volume": "2500000",
	"tags": [{"id": "1", "label": "Business", "slug": "business"}],
	"markets": [{
		"id": "1",
		"question": "Fed rate cut in December?",
		"outcomes": "[\"Yes\", \"No\"]",
		"outcomePrices": "[\"0.3\", \"0.7\"]"
	}]
}`

func newGamma(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/events":
			assert.Equal(t, "business", r.URL.Query().Get("tag_slug"))
			_, _ = w.Write([]byte("[" + eventJSON + "]"))
		case "/events/516710":
			_, _ = w.Write([]byte(eventJSON))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func isolateEnv(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("XAI_API_KEY", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("ENABLE_ENRICHMENT", "false")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPreview(t *testing.T) {
	gamma := newGamma(t)

	out, err := run(t, "preview", "--gamma-url", gamma.URL, "--category", "business")
	require.NoError(t, err)

	assert.Contains(t, out, "516710")
	assert.Contains(t, out, "70.0%")
	assert.Contains(t, out, "No (70.0%), Yes (30.0%)")
	assert.Contains(t, out, "Market skeptical on Fed rate cut in December?")
	assert.Contains(t, out, "市场看淡：Fed rate cut in December?")
}

func TestStory_SQLiteWithoutLLM(t *testing.T) {
	isolateEnv(t)
	gamma := newGamma(t)
	dbPath := filepath.Join(t.TempDir(), "stories.db")

	out, err := run(t, "story", "516710", "--gamma-url", gamma.URL, "--sqlite", dbPath)
	require.NoError(t, err)

	var got struct {
		ID      string                  `json:"id"`
		Version string                  `json:"version"`
		Context models.MarketContext    `json:"context"`
		Story   models.GeneratedContent `json:"story"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "516710", got.ID)
	assert.Equal(t, "v12_analytical", got.Version)
	assert.Equal(t, "No", got.Context.TopOutcome)
	assert.Equal(t, "Market skeptical on Fed rate cut in December?", got.Story.Headline)
	assert.Equal(t, models.ImpactLow, got.Story.Impact)

	store, err := sqlite.New(dbPath)
	require.NoError(t, err)
	defer store.Close()
	n, err := store.Count(t.Context())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStory_RequiresID(t *testing.T) {
	_, err := run(t, "story")
	assert.Error(t, err)
}

func TestWarm(t *testing.T) {
	isolateEnv(t)
	gamma := newGamma(t)
	dbPath := filepath.Join(t.TempDir(), "stories.db")

	out, err := run(t, "warm", "--gamma-url", gamma.URL, "--category", "business", "--sqlite", dbPath)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "516710")
	assert.Contains(t, lines[1], "LOW")
	assert.Contains(t, lines[1], "false")
}
