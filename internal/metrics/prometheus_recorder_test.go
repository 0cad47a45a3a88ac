package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObservePhaseDuration("compile", 150*time.Millisecond)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncBuildOutcome(OutcomeSuccess)
	pr.IncRendered("html", "post")
	pr.IncEmbedLookup("twitter", EmbedHit)
	pr.IncCopiedFiles(3)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(mfs))
	for _, mf := range mfs {
		names = append(names, mf.GetName())
	}
	require.Contains(t, names, "bang_rendered_items_total")
	require.Contains(t, names, "bang_embed_lookups_total")

	out := filepath.Join(t.TempDir(), "bang.prom")
	require.NoError(t, pr.WriteTextfile(out))
	b, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(b), `bang_embed_lookups_total{provider="twitter",result="hit"} 1`)
	require.Contains(t, string(b), `bang_copied_files_total 3`)
}

func TestTimer(t *testing.T) {
	rec := &capture{}
	d := StartPhase(rec, "walk").Stop()
	require.Equal(t, "walk", rec.phase)
	require.Equal(t, d, rec.d)

	var noop Recorder = NoopRecorder{}
	StartPhase(noop, "x").Stop()
}

type capture struct {
	NoopRecorder
	phase string
	d     time.Duration
}

func (c *capture) ObservePhaseDuration(phase string, d time.Duration) { c.phase, c.d = phase, d }
