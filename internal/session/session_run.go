package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/r3labs/diff/v3"

	"github.com/alanbriolat/instantube"
	"github.com/alanbriolat/instantube/generic"
)

func (s *Session) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		case <-s.pollCommand:
			s.tick()
		case <-s.retryCommand:
			s.retry()
		case cmd := <-s.startCommand:
			s.startDownload(cmd)
		case r := <-s.fetchResults:
			s.fetchFinished(r)
		case r := <-s.jobResults:
			s.jobFinished(r)
		}
	}
}

// tick is one clipboard poll. A panic here is logged and the watcher carries on with the next tick.
func (s *Session) tick() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Errorf("clipboard poll panicked: %v", r)
		}
	}()

	if s.inProgress.IsSet() || s.fetching.IsSome() {
		return
	}
	text, err := s.config.Clipboard.ReadText()
	if err != nil {
		s.log.Warnf("%v", err)
		return
	}
	text = strings.TrimSpace(text)
	if text != s.failedURL {
		s.failedURL = ""
	}

	changed := text != s.lastText
	s.lastText = text

	state := s.state.Get()
	match, err := s.config.ProviderRegistry.Match(text)
	if err != nil {
		if changed && err != instantube.ErrNoMatch {
			s.log.Debugf("clipboard text not matched: %v", err)
		}
		if state.Catalog.IsNone() {
			s.showIdle()
		}
		return
	}

	if text == s.failedURL {
		return
	}
	if last, ok := state.LastSeenURL.Get(); ok && last == text {
		return
	}
	s.startFetch(text, match)
}

func (s *Session) retry() {
	s.log.Info("retrying clipboard URL")
	s.failedURL = ""
	s.updateState(func(state *State) {
		state.LastSeenURL = generic.None[string]()
	})
	s.tick()
}

func (s *Session) startFetch(text string, match *instantube.Match) {
	s.log.Infof("fetching catalog for %s (provider %s)", text, match.ProviderName)
	s.fetching = generic.Some(text)
	s.updateState(func(state *State) {
		state.Catalog = generic.None[*instantube.Catalog]()
	})
	s.show(FetchStarted{URL: text})

	s.running.Add(1)
	go func() {
		defer s.running.Done()
		catalog, err := s.fetch(match)
		select {
		case s.fetchResults <- fetchResult{url: text, catalog: catalog, err: err}:
		case <-s.ctx.Done():
		}
	}()
}

func (s *Session) fetch(match *instantube.Match) (catalog *instantube.Catalog, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", instantube.ErrFetchFailed, r)
		}
	}()
	listing, err := match.Source.Resolve(s.ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", instantube.ErrFetchFailed, err)
	}
	return instantube.NewCatalog(match.Source.URL(), listing, s.config.StreamFamily)
}

func (s *Session) fetchFinished(r fetchResult) {
	s.fetching = generic.None[string]()
	if r.err != nil {
		s.log.Errorf("failed to fetch %s: %v", r.url, r.err)
		s.failedURL = r.url
		s.show(Error{Err: r.err, Message: fmt.Sprintf("Error fetching video: %v", r.err)})
		return
	}
	s.log.Infof("fetched %q: %d variants", r.catalog.Title(), len(r.catalog.Variants()))
	s.updateState(func(state *State) {
		state.Catalog = generic.Some(r.catalog)
		state.LastSeenURL = generic.Some(r.url)
	})
	s.show(CatalogReady{Catalog: r.catalog})
}

func (s *Session) startDownload(cmd *startRequest) {
	variant := cmd.Arg()
	reject := func(err error) {
		s.log.Warnf("download of %v rejected: %v", variant, err)
		_ = cmd.RespondError(err)
	}

	catalog, ok := s.state.Get().Catalog.Get()
	if !ok {
		reject(instantube.ErrNoCatalog)
		return
	}
	if !catalog.Contains(variant) {
		reject(instantube.ErrUnknownVariant)
		return
	}
	job, err := newJob(s, catalog, variant)
	if err != nil {
		reject(err)
		return
	}
	if !s.inProgress.Set() {
		reject(instantube.ErrDownloadInProgress)
		return
	}

	s.updateState(func(state *State) {
		state.DownloadInProgress = true
	})
	task := newTask(job)
	s.show(DownloadStarted{Job: job})

	s.running.Add(1)
	go func() {
		defer s.running.Done()
		result := job.Run(s.ctx)
		select {
		case s.jobResults <- jobResult{task: task, result: result}:
		case <-s.ctx.Done():
			// Run loop is gone, so finish the task here
			s.inProgress.Clear()
			_ = task.result.Respond(result)
		}
	}()
	_ = cmd.Respond(task)
}

func (s *Session) jobFinished(r jobResult) {
	s.inProgress.Clear()
	s.updateState(func(state *State) {
		state.DownloadInProgress = false
	})
	s.show(DownloadFinished{Result: r.result})
	_ = r.task.result.Respond(r.result)
	// Resume watching straight away rather than waiting for the next tick
	s.tick()
}

// show publishes an event that changes what the presenter displays.
func (s *Session) show(e Event) {
	if _, ok := e.(Idle); !ok {
		s.idle = false
	}
	s.events.Send(e)
}

// showIdle publishes Idle only on the transition into idle.
func (s *Session) showIdle() {
	if s.idle {
		return
	}
	s.idle = true
	s.events.Send(Idle{})
}

func (s *Session) updateState(f func(state *State)) {
	oldState, newState := s.state.Update(func(state State) State {
		f(&state)
		return state
	})
	if changes, err := diff.Diff(oldState.snapshot(), newState.snapshot()); err != nil {
		s.log.Warnf("failed to diff state: %v", err)
	} else {
		for _, c := range changes {
			s.log.Debugf("state %s: %v -> %v", strings.Join(c.Path, "."), c.From, c.To)
		}
	}
}
