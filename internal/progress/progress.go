package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Stage represents a processing stage
type Stage struct {
	Number      int
	Total       int
	Name        string
	Description string
}

// Predefined stages of a conversion job
var (
	StageValidate = Stage{1, 7, "validate", "Validating inputs..."}
	StageDecode   = Stage{2, 7, "decode", "Decoding audio to mono PCM..."}
	StageTrack    = Stage{3, 7, "track", "Tracking pitch..."}
	StageSegment  = Stage{4, 7, "segment", "Segmenting notes..."}
	StageEncode   = Stage{5, 7, "encode", "Writing MIDI..."}
	StageRender   = Stage{6, 7, "render", "Rendering sheet music..."}
	StagePublish  = Stage{7, 7, "publish", "Publishing outputs..."}
)

// Reporter handles CLI progress output
type Reporter struct {
	mu        sync.Mutex
	out       io.Writer
	startTime time.Time
	verbose   bool
}

// NewReporter creates a new progress reporter
func NewReporter(out io.Writer, verbose bool) *Reporter {
	return &Reporter{
		out:       out,
		startTime: time.Now(),
		verbose:   verbose,
	}
}

// Discard returns a reporter that prints nothing, for batch and server jobs.
func Discard() *Reporter {
	return NewReporter(io.Discard, false)
}

func (r *Reporter) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

// StartStage announces the beginning of a processing stage
func (r *Reporter) StartStage(stage Stage) {
	r.printf("[%d/%d] %s\n", stage.Number, stage.Total, stage.Description)
}

// Update shows a sub-progress message within a stage
func (r *Reporter) Update(format string, args ...any) {
	if r.verbose {
		r.printf("       %s\n", fmt.Sprintf(format, args...))
	}
}

// StageComplete shows completion message for a stage
func (r *Reporter) StageComplete(format string, args ...any) {
	r.printf("       %s\n", fmt.Sprintf(format, args...))
}

// Done announces successful completion
func (r *Reporter) Done(outputDir string) {
	elapsed := time.Since(r.startTime)
	r.printf("Conversion complete!\n")
	if outputDir != "" {
		r.printf("Files saved to: %s\n", outputDir)
	}
	r.printf("Completed in %.1f seconds\n", elapsed.Seconds())
}

// Error announces an error
func (r *Reporter) Error(err error) {
	r.printf("Error: %s\n", err)
}

// Warning announces a non-fatal warning
func (r *Reporter) Warning(format string, args ...any) {
	r.printf("Warning: %s\n", fmt.Sprintf(format, args...))
}
