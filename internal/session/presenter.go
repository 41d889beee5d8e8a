package session

import (
	"github.com/alanbriolat/instantube"
	"github.com/alanbriolat/instantube/internal/pubsub"
)

// Presenter renders the session for a user. Methods are called from a single goroutine, in event order.
type Presenter interface {
	OnIdle()
	OnCatalogReady(catalog *instantube.Catalog)
	OnDownloadStarted(job *Job)
	OnDownloadFinished(result JobResult)
	OnError(message string)
}

// ProgressPresenter is optionally implemented by a Presenter that also wants fetch and job progress.
type ProgressPresenter interface {
	OnFetchStarted(url string)
	OnJobStateChanged(id JobID, state JobState)
	OnDownloadProgress(progress DownloadProgress)
}

// Dispatch calls the Presenter method matching the event.
func Dispatch(p Presenter, e Event) {
	pp, _ := p.(ProgressPresenter)
	switch e := e.(type) {
	case Idle:
		p.OnIdle()
	case CatalogReady:
		p.OnCatalogReady(e.Catalog)
	case DownloadStarted:
		p.OnDownloadStarted(e.Job)
	case DownloadFinished:
		p.OnDownloadFinished(e.Result)
	case Error:
		p.OnError(e.Message)
	case FetchStarted:
		if pp != nil {
			pp.OnFetchStarted(e.URL)
		}
	case JobStateChanged:
		if pp != nil {
			pp.OnJobStateChanged(e.JobID, e.State)
		}
	case DownloadProgress:
		if pp != nil {
			pp.OnDownloadProgress(e)
		}
	}
}

func isPresentable(p Presenter) func(Event) bool {
	_, progress := p.(ProgressPresenter)
	return func(e Event) bool {
		switch e.(type) {
		case FetchStarted, JobStateChanged, DownloadProgress:
			return progress
		default:
			return true
		}
	}
}

// Present feeds session events to p on a new goroutine until the session is closed. The returned channel is closed
// once the last event has been dispatched.
func (s *Session) Present(p Presenter) (<-chan struct{}, error) {
	ch := pubsub.NewChannel[Event](pubsub.DefaultSubscriberBufSize)
	if err := s.events.AddSubscriber(pubsub.NewFilteredSender[Event](ch, isPresentable(p)), true); err != nil {
		return nil, err
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range ch.Receive() {
			Dispatch(p, e)
		}
	}()
	return done, nil
}
