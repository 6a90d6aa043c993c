package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/podcaster/internal/audio"
	"github.com/rcliao/podcaster/internal/config"
	"github.com/rcliao/podcaster/internal/llm"
	"github.com/rcliao/podcaster/internal/model"
	"github.com/rcliao/podcaster/internal/script"
	"github.com/rcliao/podcaster/internal/source"
	"github.com/rcliao/podcaster/internal/store"
	"github.com/rcliao/podcaster/internal/timeline"
)

const (
	draftScript = "<Speaker 1> [Welcome back to the show.]\n<Speaker 2> [Glad to be here.]\n<Speaker 1> [Let's get into it.]\n"
	tupleScript = `[
    ("Speaker 1", "Welcome back!", "Bright and quick."),
    ("Speaker 2", "Hmm, glad to be here.", "Relaxed."),
    ("Speaker 1", "Let's dive in.", "Leaning in."),
]`
)

type fakeGen struct {
	prompts []llm.Prompt
	reply   func(p llm.Prompt) (string, error)
}

func (g *fakeGen) Generate(_ context.Context, p llm.Prompt) (string, error) {
	g.prompts = append(g.prompts, p)
	return g.reply(p)
}

// stageReply answers each stage prompt with canned output.
func stageReply(p llm.Prompt) (string, error) {
	switch {
	case strings.HasPrefix(p.System, "You are a professional content writer"):
		return "Today two banks merged and rates held.", nil
	case strings.HasPrefix(p.System, "You are a podcast script writer"):
		return draftScript, nil
	case strings.HasPrefix(p.System, "You are an award-winning screenwriter"):
		return tupleScript, nil
	case strings.HasPrefix(p.System, "You are a text pre-processor"):
		return "clean " + strings.TrimPrefix(p.User, "Here is the text to process:\n\n"), nil
	case strings.HasPrefix(p.System, "You are a research analyst"):
		return "<Introduction> brief", nil
	}
	return "", errors.New("unexpected prompt")
}

type fakeTTS struct {
	requests []llm.SpeechRequest
	failAt   int // request number that fails, -1 never
}

func (s *fakeTTS) Synthesize(_ context.Context, r llm.SpeechRequest) ([]byte, error) {
	n := len(s.requests)
	s.requests = append(s.requests, r)
	if n == s.failAt {
		return nil, errors.New("voice service down")
	}
	return audio.EncodeBytes(tone(200*time.Millisecond, 0.3), audio.PCM16)
}

type fakeSource struct {
	entries []source.Entry
	err     error
}

func (s fakeSource) FetchRecent(context.Context, int) ([]source.Entry, error) {
	return s.entries, s.err
}

func tone(d time.Duration, amp float64) audio.Clip {
	f := audio.Format{SampleRate: 8000, Channels: 1}
	n := f.FramesFor(d)
	samples := make([]float32, n)
	for i := range samples {
		samples[i] = float32(amp * math.Sin(2*math.Pi*440*float64(i)/8000))
	}
	return audio.Clip{Format: f, Samples: samples}
}

func sampleEntries() []source.Entry {
	return []source.Entry{
		{Date: "13.10.2026", Title: "Bank merger", URL: "https://news.example/merger", Content: "Two banks merged."},
		{Date: "13.10.2026", Title: "Rates held", URL: "https://news.example/rates", Content: "Rates were held."},
	}
}

type fixture struct {
	p     *Pipeline
	cfg   *config.Config
	store *store.SQLStore
	gen   *fakeGen
	tts   *fakeTTS
}

func newTestPipeline(t *testing.T, src source.Source) *fixture {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Paths.DataDir = dir
	cfg.Timeline.Seed = 7

	st, err := store.NewSQLiteStore(filepath.Join(dir, "content.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log, err := logger.New(dir, "test.log")
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	gen := &fakeGen{reply: stageReply}
	tts := &fakeTTS{failAt: -1}
	p, err := New(Deps{Config: cfg, Store: st, Generator: gen, Synthesizer: tts, Source: src, Log: log})
	require.NoError(t, err)
	p.now = func() time.Time { return time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC) }

	return &fixture{p: p, cfg: cfg, store: st, gen: gen, tts: tts}
}

func TestNewRequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)
}

func TestRunPaths(t *testing.T) {
	f := newTestPipeline(t, nil)
	runID := f.p.NewRunID()
	assert.Equal(t, "20261014_120000", runID)
	assert.Equal(t, filepath.Join(f.cfg.Paths.DataDir, "scripts", "script_20261014_120000.txt"), f.p.ScriptPath(runID))
	assert.Equal(t, filepath.Join(f.cfg.Paths.DataDir, "audio", "audio_20261014_120000_part_1.wav"), f.p.PartPath(runID, 0))
	assert.Equal(t, filepath.Join(f.cfg.Paths.DataDir, "episodes", runID, "episode_20261014_120000.wav"), f.p.EpisodePath(runID))
}

func TestIngestDeduplicates(t *testing.T) {
	f := newTestPipeline(t, fakeSource{entries: sampleEntries()})
	ctx := context.Background()

	res, err := f.p.Ingest(ctx)
	require.NoError(t, err)
	assert.Equal(t, &IngestResult{Fetched: 2, Inserted: 2}, res)

	res, err = f.p.Ingest(ctx)
	require.NoError(t, err)
	assert.Equal(t, &IngestResult{Fetched: 2, Skipped: 2}, res)

	items, err := f.store.List(ctx, store.ListParams{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestIngestSourceFailure(t *testing.T) {
	boom := errors.New("listing down")

	f := newTestPipeline(t, fakeSource{err: boom})
	_, err := f.p.Ingest(context.Background())
	assert.ErrorIs(t, err, boom)

	f = newTestPipeline(t, fakeSource{entries: sampleEntries(), err: boom})
	res, err := f.p.Ingest(context.Background())
	require.NoError(t, err, "partial results still ingest")
	assert.Equal(t, 2, res.Inserted)

	f = newTestPipeline(t, nil)
	_, err = f.p.Ingest(context.Background())
	assert.Error(t, err)
}

func TestIngestStorageFailureAborts(t *testing.T) {
	f := newTestPipeline(t, fakeSource{entries: sampleEntries()})
	require.NoError(t, f.store.Close())

	res, err := f.p.Ingest(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrStorage)
	assert.Equal(t, &IngestResult{Fetched: 2}, res, "the pass stops at the first entry")
}

func TestDigestRecordsSources(t *testing.T) {
	f := newTestPipeline(t, fakeSource{entries: sampleEntries()})
	ctx := context.Background()

	_, err := f.p.Digest(ctx, "run1")
	assert.ErrorIs(t, err, ErrNoContent)

	_, err = f.p.Ingest(ctx)
	require.NoError(t, err)

	d, err := f.p.Digest(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, "Today two banks merged and rates held.", d.Content)
	assert.Len(t, d.Sources, 2)

	last := f.gen.prompts[len(f.gen.prompts)-1]
	assert.Contains(t, last.User, "Title: Rates held")
	assert.Contains(t, last.User, "Title: Bank merger")
	assert.Equal(t, f.cfg.Models.Digest.Model, last.Model)

	latest, err := f.store.LatestDigest(ctx)
	require.NoError(t, err)
	assert.Equal(t, d.ID, latest.ID)
}

func TestDistillKeepsRawChunkOnFailure(t *testing.T) {
	f := newTestPipeline(t, nil)
	f.cfg.Source.ChunkSize = 12
	f.gen.reply = func(p llm.Prompt) (string, error) {
		if strings.Contains(p.User, "bad") {
			return "", errors.New("rate limited")
		}
		return stageReply(p)
	}

	out, err := f.p.Distill(context.Background(), "alpha beta bad gamma delta")
	require.NoError(t, err)
	assert.Equal(t, "clean alpha beta bad gamma clean delta", out)
	assert.Len(t, f.gen.prompts, 3)

	_, err = f.p.Distill(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestBrief(t *testing.T) {
	f := newTestPipeline(t, nil)
	out, err := f.p.Brief(context.Background(), "some research text")
	require.NoError(t, err)
	assert.Equal(t, "<Introduction> brief", out)
	assert.Equal(t, "some research text", f.gen.prompts[0].User)

	_, err = f.p.Brief(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestScriptRewritesIntoTuples(t *testing.T) {
	f := newTestPipeline(t, nil)

	res, err := f.p.Script(context.Background(), "run1", "the digest")
	require.NoError(t, err)
	assert.Equal(t, script.DialectTuple, res.Dialect)
	require.Len(t, res.Turns, 3)
	assert.Equal(t, "Bright and quick.", res.Turns[0].Note)
	assert.Equal(t, 2, res.Turns[1].Speaker)

	require.Len(t, f.gen.prompts, 2)
	assert.Contains(t, f.gen.prompts[0].User, "the digest")
	assert.Contains(t, f.gen.prompts[0].User, "Speaker 1 is called Elly.")
	assert.Equal(t, draftScript, f.gen.prompts[1].User[len(f.gen.prompts[1].User)-len(draftScript):])
	assert.Contains(t, f.gen.prompts[1].System, "Speaker 2 is an analytical")

	stored, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, tupleScript, string(stored))
}

func TestScriptWithoutRewrite(t *testing.T) {
	f := newTestPipeline(t, nil)
	f.cfg.Source.Rewrite = false

	res, err := f.p.Script(context.Background(), "run1", "content")
	require.NoError(t, err)
	assert.Equal(t, script.DialectTagged, res.Dialect)
	assert.Len(t, res.Turns, 3)
	assert.Len(t, f.gen.prompts, 1)
}

func TestScriptParseFailure(t *testing.T) {
	f := newTestPipeline(t, nil)
	f.cfg.Source.Rewrite = false
	f.gen.reply = func(llm.Prompt) (string, error) { return "Sorry, I cannot write that.", nil }

	res, err := f.p.Script(context.Background(), "run1", "content")
	require.Error(t, err)
	assert.ErrorIs(t, err, script.ErrParse)
	require.NotNil(t, res)
	assert.Empty(t, res.Turns)
	assert.FileExists(t, res.Path, "raw output is kept for debugging")
}

func testTurns() []model.Turn {
	return []model.Turn{
		{Index: 0, Speaker: 1, Text: "hello", Note: "warm"},
		{Index: 1, Speaker: 2, Text: "hi"},
		{Index: 2, Speaker: 1, Text: "so"},
		{Index: 3, Speaker: 2, Text: "right"},
	}
}

func TestSynthesizeConditionsOnRecentHistory(t *testing.T) {
	f := newTestPipeline(t, nil)

	parts, err := f.p.Synthesize(context.Background(), "run1", testTurns())
	require.NoError(t, err)
	require.Len(t, parts, 4)
	for i, path := range parts {
		assert.Equal(t, f.p.PartPath("run1", i), path)
		assert.FileExists(t, path)
	}

	reqs := f.tts.requests
	require.Len(t, reqs, 4)
	assert.Equal(t, "shimmer", reqs[0].Voice)
	assert.Equal(t, "onyx", reqs[1].Voice)
	assert.Equal(t, "gpt-4o-audio-preview", reqs[0].Model)
	assert.Equal(t, "wav", reqs[0].Format)

	assert.Contains(t, reqs[0].System, "You are Elly")
	assert.Contains(t, reqs[0].System, "Previous conversation: .")
	assert.Contains(t, reqs[0].System, "Voice coaching for this line: warm")
	assert.Contains(t, reqs[0].User, "Text to say: hello")
	assert.Contains(t, reqs[1].System, "Previous conversation: Speaker 1: hello.")
	assert.Contains(t, reqs[3].System, "Previous conversation: Speaker 2: hi Speaker 1: so.")
	assert.NotContains(t, reqs[3].System, "hello")
}

func TestSynthesizeStopsAtFirstFailure(t *testing.T) {
	f := newTestPipeline(t, nil)
	f.tts.failAt = 2

	parts, err := f.p.Synthesize(context.Background(), "run1", testTurns())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSynthesis)

	var re *RunError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "run1", re.RunID)
	assert.Equal(t, StageSynthesize, re.Stage)
	assert.Equal(t, 2, re.Turn)
	assert.Equal(t, parts, re.Parts)
	assert.Len(t, parts, 2)
	assert.Len(t, f.tts.requests, 3, "no turn after the failure is attempted")
	assert.Contains(t, err.Error(), "run run1: stage synthesize: turn 2")

	_, err = f.p.Synthesize(context.Background(), "run1", nil)
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestSynthesizeReplacesOldParts(t *testing.T) {
	f := newTestPipeline(t, nil)
	ctx := context.Background()

	parts, err := f.p.Synthesize(ctx, "run1", testTurns())
	require.NoError(t, err)
	require.Len(t, parts, 4)
	other, err := f.p.Synthesize(ctx, "run10", testTurns()[:1])
	require.NoError(t, err)

	parts, err = f.p.Synthesize(ctx, "run1", testTurns()[:2])
	require.NoError(t, err)
	loaded, err := LoadParts(f.p.AudioDir(), PartPrefix("run1"))
	require.NoError(t, err)
	assert.Equal(t, parts, loaded)
	assert.NoFileExists(t, f.p.PartPath("run1", 2))
	assert.NoFileExists(t, f.p.PartPath("run1", 3))
	assert.FileExists(t, other[0])
}

func TestSynthesizeFailureIsRecorded(t *testing.T) {
	f := newTestPipeline(t, nil)
	f.tts.failAt = 1
	ctx := context.Background()

	_, err := f.p.Synthesize(ctx, "run1", testTurns())
	require.ErrorIs(t, err, ErrSynthesis)

	run, err := f.store.GetRun(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, run.Status)
	assert.Equal(t, StageSynthesize, run.Stage)
	assert.Contains(t, run.Error, "voice service down")
}

func TestSynthesizeUnknownSpeaker(t *testing.T) {
	f := newTestPipeline(t, nil)
	_, err := f.p.Synthesize(context.Background(), "run1", []model.Turn{{Index: 0, Speaker: 3, Text: "x"}})
	assert.ErrorIs(t, err, ErrSynthesis)
}

func TestLoadPartsNumericOrder(t *testing.T) {
	dir := t.TempDir()
	var want []string
	for n := 1; n <= 10; n++ {
		want = append(want, filepath.Join(dir, fmt.Sprintf("audio_run1_part_%d.wav", n)))
	}
	for _, path := range want {
		require.NoError(t, os.WriteFile(path, nil, 0o644))
	}
	for _, n := range []string{"audio_run2_part_3.wav", "audio_run1_part_x.wav", "audio_run10_part_11.wav", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
	// Give the files mtimes in reverse of their part order.
	base := time.Now()
	for i, path := range want {
		mt := base.Add(-time.Duration(i) * time.Hour)
		require.NoError(t, os.Chtimes(path, mt, mt))
	}

	parts, err := LoadParts(dir, "audio_run1")
	require.NoError(t, err)
	assert.Equal(t, want, parts)

	_, err = LoadParts(filepath.Join(dir, "missing"), "audio_run1")
	assert.Error(t, err)
}

func TestLoadPartsRejectsGaps(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"audio_run1_part_1.wav", "audio_run1_part_2.wav", "audio_run1_part_9.wav", "audio_run1_part_10.wav"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
	_, err := LoadParts(dir, "audio_run1")
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Contains(t, err.Error(), "expected part 3")

	// A part listed twice under different spellings is a duplicate.
	dir = t.TempDir()
	for _, n := range []string{"audio_run1_part_1.wav", "audio_run1_part_01.wav"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), nil, 0o644))
	}
	_, err = LoadParts(dir, "audio_run1")
	assert.ErrorIs(t, err, ErrIncomplete)

	parts, err := LoadParts(t.TempDir(), "audio_run1")
	require.NoError(t, err)
	assert.Empty(t, parts)
}

func TestTimelineOptions(t *testing.T) {
	tc := config.Default().Timeline
	tc.IntroStartMs, tc.IntroEndMs = 500, 4000
	opts, err := TimelineOptions(tc)
	require.NoError(t, err)
	assert.Equal(t, timeline.PrependAppend, opts.Strategy)
	assert.Equal(t, 300*time.Millisecond, opts.Pause.Min)
	assert.Equal(t, 700*time.Millisecond, opts.Pause.Max)
	assert.Equal(t, timeline.Window{Start: 500 * time.Millisecond, End: 4 * time.Second}, opts.IntroWindow)
	assert.Equal(t, 2*time.Second, opts.Fade)

	tc.Strategy = "crossfade"
	_, err = TimelineOptions(tc)
	assert.ErrorIs(t, err, timeline.ErrAssembly)
}

func TestRunEndToEnd(t *testing.T) {
	f := newTestPipeline(t, fakeSource{entries: sampleEntries()})
	ctx := context.Background()

	res, err := f.p.Run(ctx, RunOptions{})
	require.NoError(t, err)
	assert.Equal(t, "20261014_120000", res.RunID)
	assert.Equal(t, 2, res.Ingest.Inserted)
	assert.NotEmpty(t, res.DigestID)
	assert.Equal(t, 3, res.Turns)
	assert.Len(t, res.Parts, 3)
	assert.Equal(t, f.p.EpisodePath(res.RunID), res.EpisodePath)

	episode, err := timeline.Load(res.EpisodePath)
	require.NoError(t, err)
	speech := 3 * 200 * time.Millisecond
	assert.GreaterOrEqual(t, episode.Duration(), speech+600*time.Millisecond)
	assert.LessOrEqual(t, episode.Duration(), speech+1400*time.Millisecond+time.Millisecond)

	run, err := f.store.GetRun(ctx, res.RunID)
	require.NoError(t, err)
	assert.Equal(t, model.RunComplete, run.Status)
	assert.Equal(t, res.EpisodePath, run.EpisodePath)

	parts, err := LoadParts(f.p.AudioDir(), PartPrefix(res.RunID))
	require.NoError(t, err)
	assert.Equal(t, res.Parts, parts)
}

func TestRunFromInputFile(t *testing.T) {
	f := newTestPipeline(t, nil)
	f.cfg.Source.Rewrite = false
	input := filepath.Join(t.TempDir(), "paper.txt")
	require.NoError(t, os.WriteFile(input, []byte("raw   paper text"), 0o644))

	res, err := f.p.Run(context.Background(), RunOptions{RunID: "paper", InputPath: input})
	require.NoError(t, err)
	assert.Nil(t, res.Ingest)
	assert.Empty(t, res.DigestID)
	assert.Contains(t, f.gen.prompts[1].User, "clean raw paper text")
	assert.FileExists(t, res.EpisodePath)
}

func TestRunFailureIsRecorded(t *testing.T) {
	f := newTestPipeline(t, fakeSource{entries: sampleEntries()})
	f.tts.failAt = 1
	ctx := context.Background()

	_, err := f.p.Run(ctx, RunOptions{RunID: "broken"})
	require.Error(t, err)
	var re *RunError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, StageSynthesize, re.Stage)
	assert.Equal(t, 1, re.Turn)
	assert.Len(t, re.Parts, 1)

	run, err := f.store.GetRun(ctx, "broken")
	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, run.Status)
	assert.Equal(t, StageSynthesize, run.Stage)
	assert.Contains(t, run.Error, "voice service down")
	assert.NoFileExists(t, f.p.EpisodePath("broken"))
}

func TestRunParseFailureAborts(t *testing.T) {
	f := newTestPipeline(t, fakeSource{entries: sampleEntries()})
	f.gen.reply = func(p llm.Prompt) (string, error) {
		if strings.HasPrefix(p.System, "You are an award-winning screenwriter") {
			return "I'd rather not.", nil
		}
		return stageReply(p)
	}

	_, err := f.p.Run(context.Background(), RunOptions{RunID: "unparsed"})
	require.Error(t, err)
	assert.ErrorIs(t, err, script.ErrParse)
	var re *RunError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, StageParse, re.Stage)
	assert.Empty(t, f.tts.requests)
}

func TestAssembleWithMusic(t *testing.T) {
	f := newTestPipeline(t, nil)
	ctx := context.Background()
	dir := t.TempDir()

	intro := filepath.Join(dir, "intro.wav")
	outro := filepath.Join(dir, "outro.wav")
	require.NoError(t, timeline.Export(tone(3*time.Second, 0.2), intro, timeline.FormatWAV))
	require.NoError(t, timeline.Export(tone(3*time.Second, 0.2), outro, timeline.FormatWAV))
	f.cfg.Timeline.IntroPath, f.cfg.Timeline.IntroEndMs = intro, 1000
	f.cfg.Timeline.OutroPath = outro
	f.cfg.Timeline.FadeMs = 100
	f.cfg.Timeline.ExportFormat = "wav-ulaw"

	turns := testTurns()[:1]
	parts, err := f.p.Synthesize(ctx, "music", turns)
	require.NoError(t, err)

	path, err := f.p.Assemble(ctx, "music", turns, parts)
	require.NoError(t, err)
	episode, err := timeline.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1*time.Second+200*time.Millisecond+3*time.Second, episode.Duration())

	run, err := f.store.GetRun(ctx, "music")
	require.NoError(t, err)
	assert.Equal(t, model.RunComplete, run.Status)

	_, err = f.p.Assemble(ctx, "music", turns, nil)
	assert.ErrorIs(t, err, ErrNoContent)

	f.cfg.Timeline.IntroPath = filepath.Join(dir, "missing.wav")
	_, err = f.p.Assemble(ctx, "music", turns, parts)
	assert.ErrorIs(t, err, timeline.ErrAssembly)
}

func TestAssembleRefusesRunWithMissingParts(t *testing.T) {
	f := newTestPipeline(t, nil)
	f.tts.failAt = 1
	ctx := context.Background()
	turns := testTurns()

	_, err := f.store.StartRun(ctx, "partial", StageSynthesize)
	require.NoError(t, err)
	_, err = f.p.Synthesize(ctx, "partial", turns)
	require.ErrorIs(t, err, ErrSynthesis)
	require.NoError(t, f.store.FailRun(ctx, "partial", StageSynthesize, err))

	parts, err := LoadParts(f.p.AudioDir(), PartPrefix("partial"))
	require.NoError(t, err)
	require.Len(t, parts, 1)

	_, err = f.p.Assemble(ctx, "partial", turns, parts)
	assert.ErrorIs(t, err, ErrIncomplete)

	run, err := f.store.GetRun(ctx, "partial")
	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, run.Status)
	assert.Equal(t, StageSynthesize, run.Stage)
	assert.NoFileExists(t, f.p.EpisodePath("partial"))

	// Synthesizing again clears the failure.
	f.tts.failAt = -1
	parts, err = f.p.Synthesize(ctx, "partial", turns)
	require.NoError(t, err)
	path, err := f.p.Assemble(ctx, "partial", turns, parts)
	require.NoError(t, err)

	run, err = f.store.GetRun(ctx, "partial")
	require.NoError(t, err)
	assert.Equal(t, model.RunComplete, run.Status)
	assert.Equal(t, path, run.EpisodePath)
}

func TestAssembleChecksPartsAgainstTurns(t *testing.T) {
	f := newTestPipeline(t, nil)
	ctx := context.Background()
	turns := testTurns()

	parts, err := f.p.Synthesize(ctx, "run1", turns)
	require.NoError(t, err)

	_, err = f.p.Assemble(ctx, "run1", turns, parts[:3])
	assert.ErrorIs(t, err, ErrIncomplete)

	var re *RunError
	_, err = f.p.Assemble(ctx, "run1", turns, []string{parts[0], parts[2], parts[1], parts[3]})
	assert.ErrorIs(t, err, ErrIncomplete)
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 1, re.Turn)

	run, err := f.store.GetRun(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, run.Status)
	assert.Equal(t, StageAssemble, run.Stage)
	assert.NoFileExists(t, f.p.EpisodePath("run1"))

	// A damaged part is reported by its turn.
	require.NoError(t, os.WriteFile(parts[2], []byte("not audio"), 0o644))
	_, err = f.p.Assemble(ctx, "run1", turns, parts)
	assert.ErrorIs(t, err, timeline.ErrAssembly)
	require.True(t, errors.As(err, &re))
	assert.Equal(t, 2, re.Turn)

	// Complete parts of a run that failed in synthesis are still refused.
	parts, err = f.p.Synthesize(ctx, "run1", turns)
	require.NoError(t, err)
	require.NoError(t, f.store.FailRun(ctx, "run1", StageSynthesize, errors.New("interrupted")))
	_, err = f.p.Assemble(ctx, "run1", turns, parts)
	assert.ErrorIs(t, err, ErrIncomplete)

	run, err = f.store.GetRun(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, model.RunFailed, run.Status)
	assert.Equal(t, StageSynthesize, run.Stage)
}

func TestRunErrorFormatting(t *testing.T) {
	cause := errors.New("disk full")
	err := &RunError{RunID: "r", Stage: StageExport, Turn: -1, Err: cause}
	assert.Equal(t, "run r: stage export: disk full", err.Error())
	assert.ErrorIs(t, err, cause)

	err = &RunError{RunID: "r", Stage: StageAssemble, Turn: -1, Parts: []string{"a", "b"}, Err: cause}
	assert.Equal(t, "run r: stage assemble (2 parts written): disk full", err.Error())
}
