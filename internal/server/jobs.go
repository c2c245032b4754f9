package server

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yoswag75/Musicify/internal/pipeline"
	"github.com/yoswag75/Musicify/internal/workspace"
)

// Job status constants
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
)

// Job represents a processing job
type Job struct {
	ID         string    `json:"id"`
	Status     JobStatus `json:"status"`
	Filename   string    `json:"filename"`
	Instrument string    `json:"instrument"`
	Notes      int       `json:"notes"`
	HasScore   bool      `json:"has_score"`
	Warning    string    `json:"warning,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`

	midiPath  string
	scorePath string
	upload    *workspace.Workspace
	request   pipeline.Job
}

// JobManager manages processing jobs
type JobManager struct {
	jobs      map[string]*Job
	mu        sync.RWMutex
	wg        sync.WaitGroup
	orch      *pipeline.Orchestrator
	logger    *zap.Logger
	outputDir string
	ttl       time.Duration
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewJobManager creates a new job manager. Each job publishes into its own
// folder under outputDir. Finished jobs are forgotten after ttl.
func NewJobManager(orch *pipeline.Orchestrator, logger *zap.Logger, outputDir string, ttl time.Duration) *JobManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &JobManager{
		jobs:      make(map[string]*Job),
		orch:      orch,
		logger:    logger,
		outputDir: outputDir,
		ttl:       ttl,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Create registers a pending job for an uploaded file.
func (m *JobManager) Create(filename string, upload *workspace.Workspace, request pipeline.Job) *Job {
	id := uuid.New().String()
	request.OutputDir = filepath.Join(m.outputDir, id)
	job := &Job{
		ID:         id,
		Status:     StatusPending,
		Filename:   filename,
		Instrument: request.Instrument,
		CreatedAt:  time.Now(),
		upload:     upload,
		request:    request,
	}

	m.mu.Lock()
	m.jobs[job.ID] = job
	m.mu.Unlock()
	return job
}

// Get returns a snapshot of a job, or false if it is unknown.
func (m *JobManager) Get(id string) (Job, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	job, ok := m.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// Start runs a job in the background.
func (m *JobManager) Start(job *Job) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.process(job)
	}()
}

func (m *JobManager) process(job *Job) {
	defer job.upload.Cleanup()
	defer m.expire(job.ID)

	m.update(job.ID, func(j *Job) { j.Status = StatusProcessing })
	log := m.logger.With(zap.String("job", job.ID), zap.String("file", job.Filename))

	result, err := m.orch.Execute(m.ctx, job.request)
	status := pipeline.StatusOf(result, err)

	m.update(job.ID, func(j *Job) {
		j.Status = JobStatus(status)
		if err != nil {
			j.Error = err.Error()
			return
		}
		j.Notes = len(result.Notes)
		j.midiPath = result.MIDIPath
		j.scorePath = result.ScorePath
		j.HasScore = result.ScorePath != ""
		if result.ScoreErr != nil {
			j.Warning = "sheet music not rendered: " + result.ScoreErr.Error()
		}
	})

	if err != nil {
		log.Error("job failed", zap.Error(err))
		return
	}
	log.Info("job finished", zap.String("status", string(status)), zap.Int("notes", len(result.Notes)))
}

func (m *JobManager) update(id string, fn func(*Job)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if job, ok := m.jobs[id]; ok {
		fn(job)
	}
}

func (m *JobManager) expire(id string) {
	if m.ttl <= 0 {
		return
	}
	time.AfterFunc(m.ttl, func() {
		m.mu.Lock()
		delete(m.jobs, id)
		m.mu.Unlock()
	})
}

// Shutdown cancels running jobs and waits for them to discard their outputs.
func (m *JobManager) Shutdown(ctx context.Context) error {
	m.cancel()
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every started job has finished.
func (m *JobManager) Wait() {
	m.wg.Wait()
}
