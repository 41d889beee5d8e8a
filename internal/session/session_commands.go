package session

import (
	"github.com/alanbriolat/instantube"
	"github.com/alanbriolat/instantube/internal/lpc"
)

// Poll asks the watcher to check the clipboard now instead of waiting for the next tick.
func (s *Session) Poll() {
	select {
	case s.pollCommand <- struct{}{}:
	case <-s.ctx.Done():
	}
}

// Retry forgets the last seen and last failed URLs, then polls, so the URL currently on the clipboard is fetched again
// even if it hasn't changed.
func (s *Session) Retry() {
	select {
	case s.retryCommand <- struct{}{}:
	case <-s.ctx.Done():
	}
}

// StartDownload starts a download job for a variant of the current catalog. Only one job may run at a time, so this
// fails with ErrDownloadInProgress while another job is running. The returned Task completes when the job does.
func (s *Session) StartDownload(variant instantube.VideoVariant) (*Task, error) {
	cmd := lpc.NewCommand[instantube.VideoVariant, *Task](variant)
	select {
	case s.startCommand <- cmd:
		return cmd.Wait()
	case <-s.ctx.Done():
		return nil, ErrSessionClosed
	}
}

// StartDownloadIndex is StartDownload for the variant at position i of the current catalog's listing.
func (s *Session) StartDownloadIndex(i int) (*Task, error) {
	catalog, ok := s.State().Catalog.Get()
	if !ok {
		return nil, instantube.ErrNoCatalog
	}
	variant, ok := catalog.Variant(i)
	if !ok {
		return nil, instantube.ErrUnknownVariant
	}
	return s.StartDownload(variant)
}

// Task is the handle to a running download job.
type Task struct {
	job    *Job
	result *lpc.Command[*Job, JobResult]
}

func newTask(job *Job) *Task {
	return &Task{job: job, result: lpc.NewCommand[*Job, JobResult](job)}
}

func (t *Task) Job() *Job {
	return t.job
}

// Done returns a channel that is closed once the job has finished, successfully or not.
func (t *Task) Done() <-chan struct{} {
	return t.result.Done()
}

// Wait blocks until the job has finished and returns its result.
func (t *Task) Wait() JobResult {
	result, err := t.result.Wait()
	if err != nil {
		return JobResult{JobID: t.job.ID, Title: t.job.Title, Err: err}
	}
	return result
}
