package pipeline

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Status summarizes how a job ended.
type Status string

const (
	StatusComplete        Status = "complete"
	StatusCompleteNoScore Status = "complete_without_score"
	StatusFailed          Status = "failed"
	StatusCancelled       Status = "cancelled"
)

// StatusOf classifies the outcome of Execute.
func StatusOf(result *Result, err error) Status {
	switch {
	case errors.Is(err, context.Canceled):
		return StatusCancelled
	case err != nil:
		return StatusFailed
	case result.ScoreErr != nil || result.ScorePath == "":
		return StatusCompleteNoScore
	default:
		return StatusComplete
	}
}

// JobOutcome is the result of one job in a batch.
type JobOutcome struct {
	Index  int
	Job    Job
	Result *Result
	Err    error
	Status Status
}

// Failed reports whether the job produced no MIDI file.
func (o JobOutcome) Failed() bool {
	return o.Status == StatusFailed || o.Status == StatusCancelled
}

// RunBatch executes jobs with at most parallel running at once. Each job
// owns its own workspace and output folder; one failure never stops the
// others. onDone, if set, is called from the worker goroutine as each job
// finishes. Outcomes are returned in input order.
func RunBatch(ctx context.Context, orch *Orchestrator, jobs []Job, parallel int, onDone func(JobOutcome)) []JobOutcome {
	if parallel < 1 {
		parallel = 1
	}
	outcomes := make([]JobOutcome, len(jobs))

	g := new(errgroup.Group)
	g.SetLimit(parallel)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			var (
				result *Result
				err    error
			)
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
			} else {
				result, err = orch.Execute(ctx, job)
			}
			out := JobOutcome{Index: i, Job: job, Result: result, Err: err, Status: StatusOf(result, err)}
			outcomes[i] = out
			if onDone != nil {
				onDone(out)
			}
			return nil
		})
	}
	g.Wait()
	return outcomes
}

// Summary counts batch outcomes by status.
func Summary(outcomes []JobOutcome) map[Status]int {
	counts := make(map[Status]int)
	for _, o := range outcomes {
		counts[o.Status]++
	}
	return counts
}
