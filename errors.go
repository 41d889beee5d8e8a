package instantube

import "errors"

var (
	// ErrClipboardRead is transient: the watcher logs it and polls again.
	ErrClipboardRead = errors.New("clipboard read failed")
	// ErrFetchFailed means no catalog was produced for a URL.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrNoStreamsAvailable means the URL resolved, but has no adaptive video or audio streams in the wanted family.
	ErrNoStreamsAvailable = errors.New("no available video or audio streams")
	// ErrOutputAlreadyExists is returned before any network I/O if the merged output file is already present.
	ErrOutputAlreadyExists  = errors.New("output file already exists")
	ErrStreamDownloadFailed = errors.New("stream download failed")
	ErrMuxFailed            = errors.New("mux failed")
	// ErrCleanupFailed is only ever logged, it never fails a job.
	ErrCleanupFailed      = errors.New("cleanup failed")
	ErrDownloadInProgress = errors.New("a download is already in progress")
	ErrNoCatalog          = errors.New("no catalog fetched")
	ErrUnknownVariant     = errors.New("variant is not part of the current catalog")
	ErrFFmpegNotFound     = errors.New("ffmpeg not found in PATH")
)
