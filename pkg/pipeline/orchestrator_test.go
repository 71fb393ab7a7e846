package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"

	"github.com/encodingman/encodingman/pkg/errors"
)

// projection drops fields that legitimately vary between runs, such as the
// random part of temporary output names and timings.
type projection struct {
	Path       string
	Tag        Tag
	Encoding   string
	Confidence float64
}

func project(sum *Summary) []projection {
	out := make([]projection, len(sum.Outcomes))
	for i, o := range sum.Outcomes {
		out[i] = projection{Path: o.Path, Tag: o.Tag, Encoding: o.Encoding(), Confidence: o.Confidence()}
	}
	return out
}

func mixedBatch(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	return []string{
		writeFixture(t, dir, "sjis.csv", encode(t, japanese.ShiftJIS, japaneseText)),
		writeFixture(t, dir, "utf8bom.txt", append(append([]byte{}, utf8BOM...), japaneseText...)),
		filepath.Join(dir, "missing.csv"),
		writeFixture(t, dir, "book.xlsx", []byte("PK\x03\x04zip")),
	}
}

func TestOrchestrator_MixedBatch(t *testing.T) {
	paths := mixedBatch(t)
	p := newPipeline(t, "utf-8-bom")

	var seen []string
	sum := NewOrchestrator(p, 3).
		OnProgress(func(o FileOutcome) { seen = append(seen, o.Path) }).
		Run(context.Background(), paths)

	assert.False(t, sum.Canceled)
	assert.Empty(t, sum.Pending)
	assert.ElementsMatch(t, paths, seen)
	assert.Equal(t, Counts{Total: 4, Converted: 1, AlreadyTarget: 1, Binary: 1, Errors: 1}, sum.Counts)

	require.Len(t, sum.Outcomes, 4)
	want := []Tag{TagConverted, TagAlreadyTarget, TagError, TagBinary}
	for i, o := range sum.Outcomes {
		assert.Equal(t, paths[i], o.Path)
		assert.Equal(t, i, o.Index)
		assert.Equal(t, want[i], o.Tag, o.Path)
	}
	assert.True(t, errors.HasCode(sum.Outcomes[2].Err, errors.CodeUnreadableSource))
	assert.Len(t, sum.Failed(), 1)
}

func TestOrchestrator_Deterministic(t *testing.T) {
	paths := mixedBatch(t)

	first := NewOrchestrator(newPipeline(t, "utf-8-bom"), 4).Run(context.Background(), paths)
	second := NewOrchestrator(newPipeline(t, "utf-8-bom"), 1).Run(context.Background(), paths)

	assert.Equal(t, project(first), project(second))
	assert.Equal(t, first.Counts, second.Counts)
}

func TestOrchestrator_Empty(t *testing.T) {
	sum := NewOrchestrator(newPipeline(t, "utf-8-bom"), 2).Run(context.Background(), nil)
	assert.Empty(t, sum.Outcomes)
	assert.Equal(t, Counts{}, sum.Counts)
	assert.Empty(t, sum.Failed())
}

type funcProcessor func(ctx context.Context, path string) FileOutcome

func (f funcProcessor) Process(ctx context.Context, path string) FileOutcome { return f(ctx, path) }

func TestOrchestrator_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	proc := funcProcessor(func(_ context.Context, path string) FileOutcome {
		calls.Add(1)
		return FileOutcome{Path: path, Tag: TagAlreadyTarget}
	})

	paths := []string{"a.csv", "b.csv", "c.csv"}
	sum := NewOrchestrator(proc, 2).Run(ctx, paths)

	assert.True(t, sum.Canceled)
	assert.Zero(t, calls.Load())
	assert.Empty(t, sum.Outcomes)
	assert.Equal(t, paths, sum.Pending)
}

func TestOrchestrator_CancelMidBatch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var once sync.Once
	proc := funcProcessor(func(ctx context.Context, path string) FileOutcome {
		once.Do(cancel)
		time.Sleep(5 * time.Millisecond)
		// work in flight keeps a live context
		if ctx.Err() != nil {
			return FileOutcome{Path: path, Tag: TagError}
		}
		return FileOutcome{Path: path, Tag: TagAlreadyTarget}
	})

	paths := make([]string, 50)
	for i := range paths {
		paths[i] = filepath.Join("dir", string(rune('a'+i%26))+".csv")
	}
	sum := NewOrchestrator(proc, 1).Run(ctx, paths)

	assert.True(t, sum.Canceled)
	assert.NotEmpty(t, sum.Pending)
	assert.Equal(t, len(paths), len(sum.Outcomes)+len(sum.Pending))
	assert.Equal(t, len(sum.Outcomes), sum.Counts.Total)
	for _, o := range sum.Outcomes {
		assert.Equal(t, TagAlreadyTarget, o.Tag)
	}
}

func TestOrchestrator_RecoversPanic(t *testing.T) {
	proc := funcProcessor(func(_ context.Context, path string) FileOutcome {
		if path == "bad.csv" {
			panic("boom")
		}
		return FileOutcome{Path: path, Tag: TagAlreadyTarget}
	})

	sum := NewOrchestrator(proc, 2).Run(context.Background(), []string{"ok.csv", "bad.csv"})

	require.Len(t, sum.Outcomes, 2)
	assert.Equal(t, TagAlreadyTarget, sum.Outcomes[0].Tag)
	assert.Equal(t, TagError, sum.Outcomes[1].Tag)
	assert.Equal(t, 1, sum.Outcomes[1].Index)
	assert.True(t, errors.HasCode(sum.Outcomes[1].Err, errors.CodePanic))
	assert.Contains(t, sum.Outcomes[1].Message, "boom")
}

func TestOrchestrator_BoundedWorkers(t *testing.T) {
	var active, peak atomic.Int32
	proc := funcProcessor(func(_ context.Context, path string) FileOutcome {
		n := active.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		active.Add(-1)
		return FileOutcome{Path: path, Tag: TagAlreadyTarget}
	})

	paths := make([]string, 40)
	for i := range paths {
		paths[i] = "f.csv"
	}
	sum := NewOrchestrator(proc, 3).Run(context.Background(), paths)

	assert.Equal(t, 40, sum.Counts.AlreadyTarget)
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestOrchestrator_NoGoroutineLeak(t *testing.T) {
	before := runtime.NumGoroutine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewOrchestrator(newPipeline(t, "utf-8"), 8).Run(ctx, mixedBatch(t))
	NewOrchestrator(newPipeline(t, "utf-8"), 8).Run(context.Background(), mixedBatch(t))

	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, runtime.NumGoroutine()-before, 1)
}

func TestOrchestrator_OriginalsUntouched(t *testing.T) {
	paths := mixedBatch(t)
	before := map[string][]byte{}
	for _, p := range paths {
		if b, err := os.ReadFile(p); err == nil {
			before[p] = b
		}
	}

	NewOrchestrator(newPipeline(t, "utf-8-bom"), 4).Run(context.Background(), paths)

	for p, b := range before {
		after, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, b, after, p)
	}
}
