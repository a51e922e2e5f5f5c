package app

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdulachik/readmewatch/internal/config"
	"github.com/abdulachik/readmewatch/internal/monitor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const readme = `# New Grad Positions

| Company | Role | Location | Application/Link | Date Posted |
| ------- | ---- | -------- | ---------------- | ----------- |
| **[Acme](https://acme.test)** | Software Engineer I | NYC | [Apply](https://acme.test/jobs) | Oct 01 |
| ↳ | Data Engineer | Remote | [Apply](https://acme.test/jobs) | Oct 01 |
`

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("without history", func(t *testing.T) {
		a, err := New(ctx, &config.Config{ProfileName: "test", RequestTimeout: time.Second})
		require.NoError(t, err)
		defer a.Close()

		assert.Nil(t, a.Store)
		assert.Equal(t, "test", a.Profile.Name)
		assert.NotNil(t, a.Source)
		assert.NotNil(t, a.Notifier)
		assert.NotNil(t, a.Scheduler)
	})

	t.Run("with history", func(t *testing.T) {
		a, err := New(ctx, &config.Config{
			ProfileName:  "prod",
			DatabasePath: filepath.Join(t.TempDir(), "history.db"),
		})
		require.NoError(t, err)
		defer a.Close()

		require.NotNil(t, a.Store)
		count, err := a.Store.CountChecks(ctx, "prod")
		require.NoError(t, err)
		assert.Equal(t, int64(0), count)
	})

	t.Run("unknown profile", func(t *testing.T) {
		_, err := New(ctx, &config.Config{ProfileName: "staging"})
		assert.ErrorContains(t, err, `unknown profile "staging"`)
	})
}

func TestNewSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"sha":      "abc123",
			"content":  base64.StdEncoding.EncodeToString([]byte(readme)),
			"encoding": "base64",
		})
	}))
	defer server.Close()

	cfg := &config.Config{RequestTimeout: time.Second}
	p := config.BuiltinProfiles()["prod"]
	p.SourceURL = server.URL

	t.Run("sha mode", func(t *testing.T) {
		fp, err := NewSource(cfg, p, false).Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, monitor.KindToken, fp.Kind)
		assert.Equal(t, "abc123", fp.Token)
	})

	t.Run("records mode", func(t *testing.T) {
		fp, err := NewSource(cfg, p, true).Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, monitor.KindRecords, fp.Kind)
		assert.Equal(t, []monitor.Record{
			{Company: "Acme", Role: "Software Engineer I", Location: "NYC"},
			{Company: "Acme", Role: "Data Engineer", Location: "Remote"},
		}, fp.Records)
	})

	t.Run("private without token", func(t *testing.T) {
		priv := p
		priv.Private = true

		_, err := NewSource(cfg, priv, true).Fetch(context.Background())
		assert.ErrorIs(t, err, monitor.ErrMissingCredential)
	})
}
