package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"go.uber.org/zap"

	"github.com/yoswag75/Musicify/internal/config"
	"github.com/yoswag75/Musicify/internal/logging"
	"github.com/yoswag75/Musicify/internal/midi"
	"github.com/yoswag75/Musicify/internal/pipeline"
	"github.com/yoswag75/Musicify/internal/progress"
	"github.com/yoswag75/Musicify/internal/server"
)

var (
	version = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "musicify",
	Short: "Convert monophonic audio into MIDI and sheet music",
	Long: `Musicify turns a recording of a single melody line into a MIDI file
voiced for a General MIDI instrument, plus a PDF score when MuseScore
is installed.

Pipeline: audio → ffmpeg decode → pitch tracking → note segmentation → MIDI → score

Tools and analysis parameters are read from MUSICIFY_* environment variables.`,
	Version:      version,
	SilenceUsage: true,
}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert one audio file",
	Long: `Convert a single audio file to MIDI and sheet music.

Outputs are written to <output>/<song>_Musicified/<song>_<Instrument>.mid/.pdf

Examples:
  musicify convert -i melody.wav --instrument Flute
  musicify convert -i take.mp3 --instrument "Acoustic Grand Piano" -o ./out --no-score`,
	RunE: runConvert,
}

var batchCmd = &cobra.Command{
	Use:   "batch <manifest.yaml>",
	Short: "Convert every file listed in a YAML manifest",
	Long: `Run many conversions concurrently. A failing job never stops the others.

Manifest format:
  output_dir: ./out
  instrument: Violin
  parallel: 4
  jobs:
    - input: a.wav
    - input: b.mp3
      instrument: Cello

Example:
  musicify batch songs.yaml --parallel 2`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface",
	Long: `Start a web interface and JSON API for uploading audio files.

Example:
  musicify serve --port 8080 --output ./musicify-out`,
	RunE: runServe,
}

var instrumentsCmd = &cobra.Command{
	Use:   "instruments",
	Short: "List the General MIDI instruments",
	RunE:  runInstruments,
}

var (
	// shared flags
	logLevel  string
	logFormat string
	noScore   bool

	// convert flags
	inputPath  string
	instrument string
	outputDir  string
	tracker    string
	velocity   int
	verbose    bool

	// batch flags
	parallel int

	// serve flags
	port     int
	serveOut string
	origins  []string
)

func init() {
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(instrumentsCmd)

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides MUSICIFY_LOG_LEVEL")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", string(logging.FormatConsole), "Log format (console or json)")

	// Convert command flags
	convertCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input audio file (WAV, MP3, FLAC, OGG or M4A)")
	convertCmd.Flags().StringVar(&instrument, "instrument", "", "General MIDI instrument name, e.g. Flute")
	convertCmd.Flags().StringVarP(&outputDir, "output", "o", ".", "Output directory")
	convertCmd.Flags().StringVar(&tracker, "tracker", "", "Pitch tracker (aubio or fft); overrides MUSICIFY_TRACKER")
	convertCmd.Flags().IntVar(&velocity, "velocity", 0, "Note velocity 1-127; overrides MUSICIFY_VELOCITY")
	convertCmd.Flags().BoolVar(&noScore, "no-score", false, "Skip sheet music rendering")
	convertCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every detected note")
	convertCmd.MarkFlagRequired("input")
	convertCmd.MarkFlagRequired("instrument")

	// Batch command flags
	batchCmd.Flags().IntVar(&parallel, "parallel", 0, "Jobs to run at once; overrides the manifest")
	batchCmd.Flags().BoolVar(&noScore, "no-score", false, "Skip sheet music rendering")
	batchCmd.Flags().StringVar(&tracker, "tracker", "", "Pitch tracker (aubio or fft); overrides MUSICIFY_TRACKER")

	// Serve command flags
	serveCmd.Flags().IntVarP(&port, "port", "p", 8080, "Port to listen on")
	serveCmd.Flags().StringVarP(&serveOut, "output", "o", "musicify-out", "Directory for published outputs")
	serveCmd.Flags().StringSliceVar(&origins, "cors-origin", nil, "Allowed CORS origins (default: any)")
	serveCmd.Flags().BoolVar(&noScore, "no-score", false, "Skip sheet music rendering")
}

// setup loads settings, applies flag overrides and builds the logger.
func setup() (config.Settings, *zap.Logger, error) {
	settings, err := config.Load()
	if err != nil {
		return config.Settings{}, nil, err
	}
	if logLevel != "" {
		settings.LogLevel = logLevel
	}
	if tracker != "" {
		settings.Tracker = tracker
	}
	if velocity != 0 {
		settings.Velocity = velocity
	}
	if err := settings.Validate(); err != nil {
		return config.Settings{}, nil, err
	}

	logger, err := logging.New(settings.LogLevel, logging.Format(logFormat))
	if err != nil {
		return config.Settings{}, nil, err
	}
	return settings, logger, nil
}

// signalContext is cancelled on interrupt so running jobs discard partial outputs.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			fmt.Fprintln(os.Stderr, "\nInterrupted, cleaning up...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

func runConvert(cmd *cobra.Command, args []string) error {
	settings, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signalContext()
	defer cancel()

	reporter := progress.NewReporter(os.Stdout, verbose)
	orch := pipeline.NewOrchestrator(settings, logger, reporter, !noScore)

	result, err := orch.Execute(ctx, pipeline.Job{
		InputPath:  inputPath,
		Instrument: instrument,
		OutputDir:  outputDir,
	})
	if err != nil {
		reporter.Error(err)
		return err
	}

	reporter.Done(result.ProjectDir)
	fmt.Printf("MIDI: %s\n", result.MIDIPath)
	if result.ScorePath != "" {
		fmt.Printf("Score: %s\n", result.ScorePath)
	}
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	settings, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	manifest, err := config.LoadManifest(args[0])
	if err != nil {
		return err
	}
	workers := manifest.Parallel
	if parallel > 0 {
		workers = parallel
	}

	jobs := make([]pipeline.Job, len(manifest.Jobs))
	for i, j := range manifest.Jobs {
		jobs[i] = pipeline.Job{InputPath: j.Input, Instrument: j.Instrument, OutputDir: j.OutputDir}
	}

	ctx, cancel := signalContext()
	defer cancel()

	orch := pipeline.NewOrchestrator(settings, logger, progress.Discard(), !noScore)

	p := mpb.NewWithContext(ctx, mpb.WithWidth(64))
	bar := p.AddBar(int64(len(jobs)),
		mpb.PrependDecorators(
			decor.Name("Converting: "),
			decor.CountersNoUnit("%d / %d"),
		),
		mpb.AppendDecorators(
			decor.Percentage(),
			decor.Elapsed(decor.ET_STYLE_GO),
		),
	)

	outcomes := pipeline.RunBatch(ctx, orch, jobs, workers, func(pipeline.JobOutcome) {
		bar.Increment()
	})
	p.Wait()

	failed := 0
	for _, o := range outcomes {
		switch {
		case o.Failed():
			failed++
			fmt.Printf("%-24s %s: %v\n", o.Status, o.Job.InputPath, o.Err)
		case o.Result.ScoreErr != nil:
			fmt.Printf("%-24s %s -> %s (%v)\n", o.Status, o.Job.InputPath, o.Result.MIDIPath, o.Result.ScoreErr)
		default:
			fmt.Printf("%-24s %s -> %s\n", o.Status, o.Job.InputPath, o.Result.MIDIPath)
		}
	}

	summary := pipeline.Summary(outcomes)
	logger.Info("batch finished",
		zap.Int("jobs", len(outcomes)),
		zap.Int("complete", summary[pipeline.StatusComplete]),
		zap.Int("without_score", summary[pipeline.StatusCompleteNoScore]),
		zap.Int("failed", summary[pipeline.StatusFailed]),
		zap.Int("cancelled", summary[pipeline.StatusCancelled]))

	if failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", failed, len(outcomes))
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if err := os.MkdirAll(serveOut, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	orch := pipeline.NewOrchestrator(settings, logger, progress.Discard(), !noScore)
	srv, err := server.New(server.Config{
		Port:           port,
		OutputDir:      serveOut,
		MaxUploadSize:  settings.MaxFileSize,
		AllowedOrigins: origins,
	}, orch, logger)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()
	return srv.Run(ctx)
}

func runInstruments(cmd *cobra.Command, args []string) error {
	for _, inst := range midi.Instruments() {
		fmt.Printf("%3d  %s\n", inst.Program, inst.Name)
	}
	return nil
}
