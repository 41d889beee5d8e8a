package session

import (
	"github.com/alanbriolat/instantube"
	"github.com/alanbriolat/instantube/generic"
)

// State is the single source of truth for what, if anything, is ready to download.
type State struct {
	Catalog            generic.Option[*instantube.Catalog]
	LastSeenURL        generic.Option[string]
	DownloadInProgress bool
}

// stateSnapshot is the loggable, diffable view of a State.
type stateSnapshot struct {
	Title              string `diff:"title"`
	Variants           int    `diff:"variants"`
	LastSeenURL        string `diff:"last_seen_url"`
	DownloadInProgress bool   `diff:"download_in_progress"`
}

func (s State) snapshot() stateSnapshot {
	snap := stateSnapshot{
		LastSeenURL:        s.LastSeenURL.UnwrapOrDefault(),
		DownloadInProgress: s.DownloadInProgress,
	}
	if catalog, ok := s.Catalog.Get(); ok {
		snap.Title = catalog.Title()
		snap.Variants = len(catalog.Variants())
	}
	return snap
}
