package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/yoswag75/Musicify/internal/audio"
	"github.com/yoswag75/Musicify/internal/config"
	apperrors "github.com/yoswag75/Musicify/internal/errors"
	"github.com/yoswag75/Musicify/internal/exec"
	"github.com/yoswag75/Musicify/internal/midi"
	"github.com/yoswag75/Musicify/internal/pitch"
	"github.com/yoswag75/Musicify/internal/progress"
	"github.com/yoswag75/Musicify/internal/score"
	"github.com/yoswag75/Musicify/internal/segment"
	"github.com/yoswag75/Musicify/internal/workspace"
	"go.uber.org/zap"
)

// ProjectSuffix is appended to the song name to form the output subfolder.
const ProjectSuffix = "_Musicified"

// Job is one conversion request. It is passed by value and never modified.
type Job struct {
	InputPath  string `json:"input"`
	Instrument string `json:"instrument"`
	OutputDir  string `json:"output_dir"`
}

// Options hold per-orchestrator settings shared by every job
type Options struct {
	Velocity      int
	RenderScore   bool
	MaxFileSize   int64
	DecodeTimeout time.Duration
	TrackTimeout  time.Duration
}

// DefaultOptions returns default pipeline options
func DefaultOptions() Options {
	return Options{
		Velocity:      midi.DefaultVelocity,
		RenderScore:   true,
		MaxFileSize:   audio.MaxFileSize,
		DecodeTimeout: 2 * time.Minute,
		TrackTimeout:  5 * time.Minute,
	}
}

// Result contains all pipeline outputs
type Result struct {
	Job        Job             `json:"job"`
	Instrument midi.Instrument `json:"instrument"`
	ProjectDir string          `json:"project_dir"`
	MIDIPath   string          `json:"midi_path"`
	ScorePath  string          `json:"score_path,omitempty"`
	ScoreErr   error           `json:"-"`
	Notes      []midi.Note     `json:"-"`
	Stats      segment.Stats   `json:"stats"`
	Sanitized  int             `json:"sanitized_frames"`
	Elapsed    time.Duration   `json:"elapsed"`
}

// Deps are the collaborators an Orchestrator drives. Renderer may be nil.
type Deps struct {
	Decoder  audio.Decoder
	Source   pitch.Source
	Encoder  *midi.Encoder
	Renderer score.Renderer
	Progress *progress.Reporter
	Logger   *zap.Logger
}

// Orchestrator coordinates the full processing pipeline
type Orchestrator struct {
	deps Deps
	opts Options
}

// New creates an orchestrator from explicit collaborators.
func New(deps Deps, opts Options) *Orchestrator {
	if deps.Encoder == nil {
		deps.Encoder = midi.NewEncoder()
	}
	if deps.Progress == nil {
		deps.Progress = progress.Discard()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if opts.Velocity == 0 {
		opts.Velocity = midi.DefaultVelocity
	}
	return &Orchestrator{deps: deps, opts: opts}
}

// NewOrchestrator wires the external tools named in settings.
func NewOrchestrator(settings config.Settings, logger *zap.Logger, reporter *progress.Reporter, renderScore bool) *Orchestrator {
	runner := exec.NewRunner(logger)

	var source pitch.Source
	switch settings.Tracker {
	case "fft":
		cfg := pitch.DefaultSpectralConfig()
		cfg.WindowSize = settings.WindowSize
		cfg.HopLength = settings.HopLength
		cfg.MinFreq = settings.MinFreq
		cfg.MaxFreq = settings.MaxFreq
		source = pitch.NewSpectralSource(cfg)
	default:
		source = pitch.NewAubioSource(runner, pitch.AubioConfig{
			Bin:        settings.AubioBin,
			SampleRate: settings.SampleRate,
			WindowSize: settings.WindowSize,
			HopLength:  settings.HopLength,
		})
	}

	var renderer score.Renderer
	if renderScore {
		renderer = score.NewMuseScore(runner, settings.MuseScoreBin, settings.RenderTimeout)
	}

	return New(Deps{
		Decoder:  audio.NewFFmpegDecoder(runner, settings.FFmpegBin, settings.SampleRate),
		Source:   source,
		Renderer: renderer,
		Progress: reporter,
		Logger:   logger,
	}, Options{
		Velocity:      settings.Velocity,
		RenderScore:   renderScore,
		MaxFileSize:   settings.MaxFileSize,
		DecodeTimeout: settings.DecodeTimeout,
		TrackTimeout:  settings.TrackTimeout,
	})
}

// ProjectDir is the folder a job's outputs are published to.
func ProjectDir(job Job) string {
	return filepath.Join(job.OutputDir, audio.SongName(job.InputPath)+ProjectSuffix)
}

// BaseName is the output file name without extension, e.g. "song_Flute".
func BaseName(job Job, inst midi.Instrument) string {
	return audio.SongName(job.InputPath) + "_" + inst.Name
}

// Validate checks a job before any processing starts.
func (o *Orchestrator) Validate(job Job) (midi.Instrument, audio.Format, error) {
	if strings.TrimSpace(job.Instrument) == "" {
		return midi.Instrument{}, "", fmt.Errorf("%w: instrument", apperrors.ErrMissingInput)
	}
	if strings.TrimSpace(job.OutputDir) == "" {
		return midi.Instrument{}, "", fmt.Errorf("%w: output directory", apperrors.ErrMissingInput)
	}
	inst, err := midi.LookupInstrument(job.Instrument)
	if err != nil {
		return midi.Instrument{}, "", err
	}
	format, err := audio.ValidateInput(job.InputPath, o.opts.MaxFileSize)
	if err != nil {
		return midi.Instrument{}, "", err
	}
	return inst, format, nil
}

// Execute runs the full pipeline for one job. Outputs appear under their
// final names only if every mandatory stage succeeded and ctx is still live.
func (o *Orchestrator) Execute(ctx context.Context, job Job) (*Result, error) {
	start := time.Now()
	log := o.deps.Logger.With(
		zap.String("input", job.InputPath),
		zap.String("instrument", job.Instrument),
	)
	rep := o.deps.Progress

	// Stage 1: Validate input
	rep.StartStage(progress.StageValidate)
	inst, format, err := o.Validate(job)
	if err != nil {
		return nil, err
	}
	rep.StageComplete("Valid %s file, instrument %s (program %d)", format, inst.Name, inst.Program)

	ws, err := workspace.Create()
	if err != nil {
		return nil, err
	}
	defer ws.Cleanup()

	// Stage 2: Decode
	rep.StartStage(progress.StageDecode)
	decodeCtx, cancel := withTimeout(ctx, o.opts.DecodeTimeout)
	err = o.deps.Decoder.Decode(decodeCtx, job.InputPath, ws.DecodedWAV())
	cancel()
	if err != nil {
		log.Error("decode failed", zap.Error(err))
		return nil, fmt.Errorf("decode audio: %w", err)
	}
	rep.StageComplete("Decoded to %s", filepath.Base(ws.DecodedWAV()))

	// Stage 3: Pitch tracking
	rep.StartStage(progress.StageTrack)
	trackCtx, cancel := withTimeout(ctx, o.opts.TrackTimeout)
	raw, err := o.deps.Source.Track(trackCtx, ws.DecodedWAV())
	cancel()
	if err != nil {
		log.Error("pitch tracking failed", zap.String("tracker", o.deps.Source.Name()), zap.Error(err))
		return nil, fmt.Errorf("track pitch: %w", err)
	}
	track, sanitized := raw.Sanitize()
	if sanitized > 0 {
		log.Warn("normalized malformed frames to unvoiced", zap.Int("frames", sanitized))
	}
	rep.StageComplete("%d frames (%d voiced) at %.1f ms hop", len(track.Frames), track.Voiced(), track.Hop*1000)

	// Stage 4: Segment
	rep.StartStage(progress.StageSegment)
	notes, stats, err := segment.Segment(track, segment.Options{Instrument: inst, Velocity: o.opts.Velocity})
	if err != nil {
		return nil, fmt.Errorf("segment notes: %w", err)
	}
	for _, n := range notes {
		rep.Update("%s", n)
	}
	if len(notes) == 0 {
		rep.Warning("no pitched notes detected; the MIDI file will be empty")
	}
	rep.StageComplete("%d notes", len(notes))
	log.Info("segmented", zap.Int("frames", stats.Frames), zap.Int("notes", stats.Notes))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 5: Encode into staging
	rep.StartStage(progress.StageEncode)
	projectDir := ProjectDir(job)
	staging, err := workspace.NewStaging(projectDir)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			staging.Discard()
		}
	}()

	base := BaseName(job, inst)
	midiName, scoreName := base+".mid", base+".pdf"
	if err := o.deps.Encoder.WriteFile(staging.Path(midiName), notes, inst); err != nil {
		return nil, fmt.Errorf("write MIDI: %w", err)
	}
	rep.StageComplete("Encoded %s", midiName)

	result := &Result{
		Job:        job,
		Instrument: inst,
		ProjectDir: projectDir,
		Notes:      notes,
		Stats:      stats,
		Sanitized:  sanitized,
	}

	// Stage 6: Render (best effort)
	rep.StartStage(progress.StageRender)
	if o.opts.RenderScore && o.deps.Renderer != nil {
		err := o.deps.Renderer.Render(ctx, staging.Path(midiName), staging.Path(scoreName))
		switch {
		case ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			// A failed render may still leave a partial document behind.
			if dropErr := staging.Drop(scoreName); dropErr != nil {
				return nil, fmt.Errorf("discard partial score: %w", dropErr)
			}
			result.ScoreErr = err
			rep.Warning("sheet music not rendered: %v", err)
			log.Warn("score render failed", zap.Error(err), zap.Bool("recoverable", apperrors.IsRecoverable(err)))
		default:
			rep.StageComplete("Rendered %s", scoreName)
		}
	} else {
		rep.StageComplete("Skipped")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 7: Publish
	rep.StartStage(progress.StagePublish)
	published, err := staging.Commit()
	if err != nil {
		return nil, err
	}
	committed = true
	result.MIDIPath = published[midiName]
	result.ScorePath = published[scoreName]
	result.Elapsed = time.Since(start)
	rep.StageComplete("Saved to %s", projectDir)

	log.Info("job complete",
		zap.String("midi", result.MIDIPath),
		zap.String("score", result.ScorePath),
		zap.Duration("elapsed", result.Elapsed))

	return result, nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
