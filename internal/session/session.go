package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/alanbriolat/instantube"
	"github.com/alanbriolat/instantube/generic"
	"github.com/alanbriolat/instantube/internal/lpc"
	"github.com/alanbriolat/instantube/internal/pubsub"
	"github.com/alanbriolat/instantube/internal/sync_"
	"github.com/alanbriolat/instantube/mux"
)

var (
	ErrSessionClosed   = errors.New("session closed")
	ErrNoClipboard     = errors.New("no clipboard configured")
	ErrInvalidInterval = errors.New("poll interval must be positive")
)

// Clipboard is the source of text the watcher polls.
type Clipboard interface {
	ReadText() (string, error)
}

type Config struct {
	ProviderRegistry *instantube.ProviderRegistry
	Clipboard        Clipboard
	Muxer            mux.Muxer
	Output           instantube.OutputConfig
	// Container family of the adaptive streams to offer, e.g. "webm" or "mp4".
	StreamFamily string
	PollInterval time.Duration
	// Download the video and audio tracks concurrently instead of one after the other.
	ParallelTracks bool
	// Leave temporary track files in place when a job fails.
	KeepTempOnFailure bool
	// Minimum interval between DownloadProgress events for each track.
	ProgressUpdateInterval time.Duration
}

var DefaultConfig = Config{
	ProviderRegistry:       &instantube.DefaultProviderRegistry,
	StreamFamily:           "webm",
	PollInterval:           2 * time.Second,
	ProgressUpdateInterval: 500 * time.Millisecond,
}

type startRequest = lpc.Command[instantube.VideoVariant, *Task]

type fetchResult struct {
	url     string
	catalog *instantube.Catalog
	err     error
}

type jobResult struct {
	task   *Task
	result JobResult
}

type Session struct {
	config    Config
	ctx       context.Context
	ctxCancel context.CancelFunc
	log       *zap.SugaredLogger

	state      *sync_.RWMutexed[State]
	inProgress sync_.Event
	events     pubsub.Publisher[Event]
	running    sync.WaitGroup // Fetch and job goroutines
	done       chan struct{}

	pollCommand  chan struct{}
	retryCommand chan struct{}
	startCommand chan *startRequest
	fetchResults chan fetchResult
	jobResults   chan jobResult

	// Owned by the run loop
	fetching  generic.Option[string]
	failedURL string
	lastText  string
	idle      bool
}

func New(config Config, ctx context.Context) (*Session, error) {
	if config.Clipboard == nil {
		return nil, ErrNoClipboard
	}
	if config.PollInterval <= 0 {
		return nil, ErrInvalidInterval
	}
	if config.ProviderRegistry == nil {
		config.ProviderRegistry = DefaultConfig.ProviderRegistry
	}
	if config.Muxer == nil {
		config.Muxer = mux.NewFFmpeg()
	}
	if config.StreamFamily == "" {
		config.StreamFamily = DefaultConfig.StreamFamily
	}
	if config.Output.Dir == "" {
		dir, err := instantube.DefaultDownloadDir()
		if err != nil {
			return nil, err
		}
		config.Output.Dir = dir
	}
	if config.Output.StemTemplate == nil {
		config.Output = instantube.NewOutputConfig(config.Output.Dir)
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{
		config:    config,
		ctx:       ctx,
		ctxCancel: cancel,
		log:       zap.S().Named("session"),

		state:  sync_.NewRWMutexed(State{}),
		events: pubsub.NewPublisher[Event](),
		done:   make(chan struct{}),

		pollCommand:  make(chan struct{}),
		retryCommand: make(chan struct{}),
		startCommand: make(chan *startRequest),
		fetchResults: make(chan fetchResult),
		jobResults:   make(chan jobResult),
	}
	s.log.Debugf("matching URLs with providers %v", config.ProviderRegistry.List())
	go s.run()
	return s, nil
}

// Subscribe returns a receiver for all future session events. The first poll happens one PollInterval after New, or
// on the first call to Poll, so subscribing straight after New sees everything.
func (s *Session) Subscribe() (pubsub.ReceiverCloser[Event], error) {
	return s.events.Subscribe()
}

// State returns a copy of the current session state.
func (s *Session) State() State {
	return s.state.Get()
}

// InProgress reports whether a download job is currently running.
func (s *Session) InProgress() bool {
	return s.inProgress.IsSet()
}

// Done returns a channel that is closed once the run loop has exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close stops the watcher, cancels any running fetch or job, and waits for them to finish before closing the event
// publisher.
func (s *Session) Close() {
	s.ctxCancel()
	<-s.done
	s.running.Wait()
	s.events.Close()
}
