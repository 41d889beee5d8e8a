package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alanbriolat/instantube"
	"github.com/alanbriolat/instantube/generic"
	"github.com/alanbriolat/instantube/internal/pubsub"
	"github.com/alanbriolat/instantube/mux"
)

type JobID string

func NewJobID() JobID {
	return JobID(generic.Unwrap(uuid.NewRandom()).String())
}

type JobState string

const (
	JobIdle             JobState = "idle"
	JobDownloadingVideo JobState = "downloading_video"
	JobDownloadingAudio JobState = "downloading_audio"
	JobMuxing           JobState = "muxing"
	JobCleaningUp       JobState = "cleaning_up"
	JobSucceeded        JobState = "succeeded"
	JobFailed           JobState = "failed"
)

func (s JobState) IsTerminal() bool {
	return s == JobSucceeded || s == JobFailed
}

type Track string

const (
	TrackVideo Track = "video"
	TrackAudio Track = "audio"
)

// Job downloads one video variant plus the catalog's audio track, and muxes them into the output file.
type Job struct {
	ID    JobID
	Title string
	Video instantube.VideoVariant
	Audio instantube.AudioVariant
	Paths instantube.JobPaths

	muxer            mux.Muxer
	events           pubsub.Sender[Event]
	log              *zap.SugaredLogger
	parallel         bool
	keepTemp         bool
	progressInterval time.Duration
	state            JobState
}

func newJob(s *Session, catalog *instantube.Catalog, variant instantube.VideoVariant) (*Job, error) {
	audio := catalog.Audio()
	paths, err := s.config.Output.Paths(catalog.Title(), variant, audio)
	if err != nil {
		return nil, err
	}
	id := NewJobID()
	return &Job{
		ID:    id,
		Title: catalog.Title(),
		Video: variant,
		Audio: audio,
		Paths: paths,

		muxer:            s.config.Muxer,
		events:           s.events,
		log:              s.log.Named("job").With("job_id", id),
		parallel:         s.config.ParallelTracks,
		keepTemp:         s.config.KeepTempOnFailure,
		progressInterval: s.config.ProgressUpdateInterval,
		state:            JobIdle,
	}, nil
}

// JobResult is the outcome of a finished Job.
type JobResult struct {
	JobID  JobID
	Title  string
	Output string
	Dir    string
	// Size of the output file in bytes, if the job succeeded.
	Size int64
	Err  error
}

func (r JobResult) Succeeded() bool {
	return r.Err == nil
}

// Message is the one-line summary shown to the user.
func (r JobResult) Message() string {
	switch {
	case r.Err == nil:
		return fmt.Sprintf("%s Downloaded Successfully in %s", filepath.Base(r.Output), r.Dir)
	case errors.Is(r.Err, instantube.ErrOutputAlreadyExists):
		return fmt.Sprintf("Error: File '%s' already exists in %s", filepath.Base(r.Output), r.Dir)
	default:
		return fmt.Sprintf("Error during download: %v", r.Err)
	}
}

// Run executes the job to completion. It never panics; all failures end up in JobResult.Err.
func (j *Job) Run(ctx context.Context) (result JobResult) {
	result = JobResult{JobID: j.ID, Title: j.Title, Output: j.Paths.Output, Dir: j.Paths.Dir}
	defer func() {
		if r := recover(); r != nil {
			result.Err = fmt.Errorf("job panicked: %v", r)
		}
		if result.Err != nil {
			j.log.Errorf("download failed: %v", result.Err)
			j.setState(JobFailed)
		} else {
			j.log.Infof("downloaded %s (%d bytes)", result.Output, result.Size)
			j.setState(JobSucceeded)
		}
	}()

	ctx = instantube.WithLogger(ctx, j.log.Desugar())
	if err := j.run(ctx); err != nil {
		result.Err = err
		return result
	}
	if fi, err := os.Stat(j.Paths.Output); err == nil {
		result.Size = fi.Size()
	}
	return result
}

func (j *Job) run(ctx context.Context) error {
	if err := os.MkdirAll(j.Paths.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}
	// Checked before any network I/O so an existing file is never clobbered
	if _, err := os.Stat(j.Paths.Output); err == nil {
		return fmt.Errorf("%w: %s", instantube.ErrOutputAlreadyExists, j.Paths.Output)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := j.downloadTracks(ctx); err != nil {
		j.cleanupAfterFailure()
		return err
	}

	j.setState(JobMuxing)
	if err := j.muxer.Mux(ctx, j.Paths.Video, j.Paths.Audio, j.Paths.Output); err != nil {
		// The precheck saw no output, so anything there now is this job's partial file, unless the muxer says
		// someone else got there first
		if !errors.Is(err, instantube.ErrOutputAlreadyExists) {
			j.removeOutput()
		}
		j.cleanupAfterFailure()
		return fmt.Errorf("%w: %w", instantube.ErrMuxFailed, err)
	}

	j.setState(JobCleaningUp)
	if err := j.removeTemp(); err != nil {
		j.log.Warnf("%v", err)
	}
	return nil
}

func (j *Job) downloadTracks(ctx context.Context) error {
	if !j.parallel {
		j.setState(JobDownloadingVideo)
		if err := j.downloadTrack(ctx, TrackVideo, j.Video.Handle, j.Paths.Video); err != nil {
			return err
		}
		j.setState(JobDownloadingAudio)
		return j.downloadTrack(ctx, TrackAudio, j.Audio.Handle, j.Paths.Audio)
	}

	g, gctx := errgroup.WithContext(ctx)
	j.setState(JobDownloadingVideo)
	g.Go(func() error {
		return j.downloadTrack(gctx, TrackVideo, j.Video.Handle, j.Paths.Video)
	})
	j.setState(JobDownloadingAudio)
	g.Go(func() error {
		return j.downloadTrack(gctx, TrackAudio, j.Audio.Handle, j.Paths.Audio)
	})
	return g.Wait()
}

func (j *Job) downloadTrack(ctx context.Context, track Track, handle instantube.Handle, path string) error {
	j.log.Debugf("downloading %s track to %s", track, path)
	if err := handle.Download(ctx, path, j.progressFunc(track)); err != nil {
		return fmt.Errorf("%w: %s track: %w", instantube.ErrStreamDownloadFailed, track, err)
	}
	return nil
}

// progressFunc rate-limits progress updates for one track, always passing through the final update.
func (j *Job) progressFunc(track Track) instantube.ProgressFunc {
	var last time.Time
	return func(downloaded, expected int64) {
		now := time.Now()
		if downloaded != expected && now.Sub(last) < j.progressInterval {
			return
		}
		last = now
		j.events.Send(DownloadProgress{JobID: j.ID, Track: track, Downloaded: downloaded, Expected: expected})
	}
}

func (j *Job) cleanupAfterFailure() {
	if j.keepTemp {
		j.log.Infof("keeping temporary files %s, %s", j.Paths.Video, j.Paths.Audio)
		return
	}
	if err := j.removeTemp(); err != nil {
		j.log.Warnf("%v", err)
	}
}

func (j *Job) removeOutput() {
	if err := os.Remove(j.Paths.Output); err != nil && !errors.Is(err, os.ErrNotExist) {
		j.log.Warnf("failed to remove partial output %s: %v", j.Paths.Output, err)
	}
}

// removeTemp removes both temporary track files, ignoring any that don't exist.
func (j *Job) removeTemp() error {
	var result error
	for _, path := range []string{j.Paths.Video, j.Paths.Audio} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			result = multierror.Append(result, err)
		}
	}
	if result != nil {
		return fmt.Errorf("%w: %w", instantube.ErrCleanupFailed, result)
	}
	return nil
}

func (j *Job) setState(state JobState) {
	if state == j.state {
		return
	}
	j.log.Debugf("state %s -> %s", j.state, state)
	j.state = state
	j.events.Send(JobStateChanged{JobID: j.ID, State: state})
}
