package session

import (
	"github.com/alanbriolat/instantube"
)

// Event is anything the session publishes to its subscribers.
type Event interface {
	event()
}

type baseEvent struct{}

func (baseEvent) event() {}

// Idle means there is nothing to show: no catalog, and the clipboard holds no qualifying URL.
type Idle struct {
	baseEvent
}

// FetchStarted is sent when a new qualifying URL is seen and its catalog is being fetched.
type FetchStarted struct {
	baseEvent
	URL string
}

type CatalogReady struct {
	baseEvent
	Catalog *instantube.Catalog
}

type DownloadStarted struct {
	baseEvent
	Job *Job
}

type JobStateChanged struct {
	baseEvent
	JobID JobID
	State JobState
}

type DownloadProgress struct {
	baseEvent
	JobID      JobID
	Track      Track
	Downloaded int64
	Expected   int64
}

type DownloadFinished struct {
	baseEvent
	Result JobResult
}

// Error reports a failure that isn't tied to a download job, e.g. a failed fetch.
type Error struct {
	baseEvent
	Err     error
	Message string
}
