package watch

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brandgate/creative-automation/internal/asset"
	"github.com/brandgate/creative-automation/internal/campaign"
	"github.com/brandgate/creative-automation/internal/compliance"
	"github.com/brandgate/creative-automation/internal/composer"
	"github.com/brandgate/creative-automation/internal/config"
	"github.com/brandgate/creative-automation/internal/generation"
	"github.com/brandgate/creative-automation/internal/pipeline"
	"github.com/brandgate/creative-automation/pkg/json"
)

func testPipeline(t *testing.T) (*pipeline.Pipeline, *config.Config) {
	t.Helper()
	log := zap.NewNop()
	cfg := &config.Config{
		OutputDir:             t.TempDir(),
		AssetsDir:             t.TempDir(),
		MaxConcurrentProducts: 2,
	}
	table := compliance.NewTermTable(map[string]compliance.Severity{
		"cures cancer": compliance.SeverityError,
	})
	gate, err := compliance.NewGate(compliance.NewScreener(table, compliance.MatchSubstring))
	require.NoError(t, err)

	gen := &generation.StaticService{}
	assets := asset.NewManager(log, cfg.AssetsDir, nil, gen)
	return pipeline.New(log, cfg, gen, assets, gate, composer.New(log), nil), cfg
}

func writeBrief(t *testing.T, dir, name string) string {
	t.Helper()
	logo := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			logo.Set(x, y, color.RGBA{R: 210, G: 90, B: 0, A: 255})
		}
	}
	logoPath := filepath.Join(dir, "logo.png")
	f, err := os.Create(logoPath)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, logo))
	require.NoError(t, f.Close())

	brief := campaign.Brief{
		CampaignID: "watch-test",
		Products:   []campaign.Product{{Name: "Spark Cola", Description: "citrus soda"}},
		Region:     "germany",
		Message:    "Refreshing taste of summer",
		Brand: campaign.Brand{
			LogoPath:       logoPath,
			PrimaryColor:   "#D25A00",
			SecondaryColor: "#FFFFFF",
		},
	}
	data, err := json.Marshal(brief)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestShouldProcess(t *testing.T) {
	w := &Watcher{}
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"created brief", fsnotify.Event{Name: "a.json", Op: fsnotify.Create}, true},
		{"written brief", fsnotify.Event{Name: "a.json", Op: fsnotify.Write}, true},
		{"removed brief", fsnotify.Event{Name: "a.json", Op: fsnotify.Remove}, false},
		{"chmod only", fsnotify.Event{Name: "a.json", Op: fsnotify.Chmod}, false},
		{"not a brief", fsnotify.Event{Name: "a.png", Op: fsnotify.Create}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.shouldProcess(tt.event))
		})
	}
}

func TestStartProcessesExistingBriefs(t *testing.T) {
	pipe, cfg := testPipeline(t)
	briefsDir := t.TempDir()
	writeBrief(t, briefsDir, "launch.json")

	w, err := New(zap.NewNop(), pipe, briefsDir, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { require.NoError(t, w.Stop()) }()

	// Start rescans synchronously, so outputs exist already.
	entries, err := os.ReadDir(filepath.Join(cfg.OutputDir, "watch-test"))
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestEventTriggersRun(t *testing.T) {
	pipe, cfg := testPipeline(t)
	briefsDir := t.TempDir()

	w, err := New(zap.NewNop(), pipe, briefsDir, "")
	require.NoError(t, err)
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer func() { require.NoError(t, w.Stop()) }()

	writeBrief(t, briefsDir, "launch.json")

	assert.Eventually(t, func() bool {
		entries, err := os.ReadDir(filepath.Join(cfg.OutputDir, "watch-test"))
		return err == nil && len(entries) == 3
	}, 10*time.Second, 100*time.Millisecond)
}

func TestRescanSkipsProcessedBriefs(t *testing.T) {
	pipe, cfg := testPipeline(t)
	briefsDir := t.TempDir()
	path := writeBrief(t, briefsDir, "launch.json")

	w, err := New(zap.NewNop(), pipe, briefsDir, "")
	require.NoError(t, err)
	defer func() { require.NoError(t, w.Stop()) }()

	ctx := context.Background()
	w.rescan(ctx)

	reportDir := filepath.Join(cfg.OutputDir, "watch-test")
	entries, err := os.ReadDir(reportDir)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Unchanged modtime means a second rescan enqueues nothing.
	w.rescan(ctx)
	assert.Empty(t, w.pending)

	// Touching the brief makes it eligible again.
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))
	w.rescan(ctx)
	w.mu.Lock()
	processed := w.seen[path]
	w.mu.Unlock()
	assert.WithinDuration(t, future, processed, time.Second)
}
