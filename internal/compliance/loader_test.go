package compliance

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testCatalogYAML = `
version: "2026-01"
policies:
  - id: POL-001
    name: Meal Spend Limit Policy
    category: meal_spend
    limit_type: per HCP
    amount: 150
    annual_cap: 1500
    annual_warn_ratio: 0.9
    keywords: ["dinner", "lunch with"]
    severity: warning
    message: Meal spend check
  - id: POL-003
    name: Off-Label Discussion Policy
    category: off_label
    keywords: ["off-label"]
    severity: stop
    approval_required: true
    approval_workflow: MIR
    message: Off-label
`

func writeCatalog(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "policies.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadCatalog(t *testing.T) {
	path := writeCatalog(t, t.TempDir(), testCatalogYAML)

	loaded, err := LoadCatalog(path)
	require.NoError(t, err)

	assert.Equal(t, "2026-01", loaded.Version)
	assert.Equal(t, path, loaded.Path)
	assert.True(t, strings.HasPrefix(loaded.Digest, "sha256:"))
	assert.Equal(t, 2, loaded.Catalog.Len())

	meal, err := loaded.Catalog.Get(CategoryMealSpend)
	require.NoError(t, err)
	assert.Equal(t, 150.0, meal.Amount)
	assert.Equal(t, 1500.0, meal.AnnualCap)
	assert.Equal(t, SeverityWarning, meal.Severity)

	offLabel, err := loaded.Catalog.Get(CategoryOffLabel)
	require.NoError(t, err)
	assert.Equal(t, SeverityStop, offLabel.Severity)
	assert.True(t, offLabel.ApprovalRequired)
}

func TestLoadCatalog_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadCatalog(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "bad yaml", body: "policies: [", want: "failed to parse"},
		{name: "bad severity", body: "policies:\n  - id: P\n    category: off_label\n    severity: fatal\n", want: "unknown severity"},
		{name: "no policies", body: "version: x\n", want: "invalid catalog"},
		{
			name: "off-label downgraded",
			body: strings.Replace(testCatalogYAML, "    severity: stop\n", "    severity: info\n", 1),
			want: "category off_label must have severity stop",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMarshalCatalog_RoundTrip(t *testing.T) {
	data, err := MarshalCatalog(DefaultCatalog(), "default")
	require.NoError(t, err)

	loaded, err := ParseCatalog(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog().List(), loaded.Catalog.List())
}

func TestParseCatalog_DigestTracksContent(t *testing.T) {
	a, err := ParseCatalog([]byte(testCatalogYAML))
	require.NoError(t, err)
	b, err := ParseCatalog([]byte(testCatalogYAML))
	require.NoError(t, err)
	c, err := ParseCatalog([]byte(strings.Replace(testCatalogYAML, "amount: 150", "amount: 175", 1)))
	require.NoError(t, err)

	assert.Equal(t, a.Digest, b.Digest)
	assert.NotEqual(t, a.Digest, c.Digest)
}

func TestWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, testCatalogYAML)

	holder := NewHolder(DefaultCatalog())
	w, err := NewWatcher(path, holder, time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	defer w.Stop()

	w.Reload()
	meal, err := holder.Load().Get(CategoryMealSpend)
	require.NoError(t, err)
	assert.Equal(t, 150.0, meal.Amount)

	// An invalid file keeps the active catalog.
	writeCatalog(t, dir, "policies: [")
	w.Reload()
	meal, err = holder.Load().Get(CategoryMealSpend)
	require.NoError(t, err)
	assert.Equal(t, 150.0, meal.Amount)
}

func TestWatcher_PicksUpFileChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, testCatalogYAML)

	holder := NewHolder(DefaultCatalog())
	w, err := NewWatcher(path, holder, 10*time.Millisecond, zap.NewNop())
	require.NoError(t, err)

	reloaded := make(chan LoadedCatalog, 4)
	w.OnReload = func(l LoadedCatalog) { reloaded <- l }

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	writeCatalog(t, dir, strings.Replace(testCatalogYAML, "amount: 150", "amount: 175", 1))

	select {
	case l := <-reloaded:
		meal, err := l.Catalog.Get(CategoryMealSpend)
		require.NoError(t, err)
		assert.Equal(t, 175.0, meal.Amount)
	case <-time.After(5 * time.Second):
		t.Fatal("catalog was not reloaded")
	}

	assert.Eventually(t, func() bool {
		meal, err := holder.Load().Get(CategoryMealSpend)
		return err == nil && meal.Amount == 175
	}, time.Second, 10*time.Millisecond)
}

func TestWatcher_NoReloadAfterStop(t *testing.T) {
	dir := t.TempDir()
	path := writeCatalog(t, dir, testCatalogYAML)

	holder := NewHolder(DefaultCatalog())
	w, err := NewWatcher(path, holder, time.Millisecond, zap.NewNop())
	require.NoError(t, err)

	var reloads int
	w.OnReload = func(LoadedCatalog) { reloads++ }

	require.NoError(t, w.Stop())
	before := holder.Load()

	w.schedule()
	w.Reload()
	time.Sleep(20 * time.Millisecond)

	assert.Same(t, before, holder.Load())
	assert.Zero(t, reloads)

	w.mu.Lock()
	assert.Nil(t, w.timer, "no debounce timer is armed after stop")
	w.mu.Unlock()
}
