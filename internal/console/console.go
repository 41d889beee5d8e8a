// Package console presents a session on a terminal and turns typed lines into session commands.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/alanbriolat/instantube"
	"github.com/alanbriolat/instantube/internal/session"
)

const barWidth = 30

type Console struct {
	mu      sync.Mutex
	out     io.Writer
	log     *zap.SugaredLogger
	catalog *instantube.Catalog
	bars    map[session.Track]*progressbar.ProgressBar
}

var (
	_ session.Presenter         = (*Console)(nil)
	_ session.ProgressPresenter = (*Console)(nil)
)

func New(out io.Writer) *Console {
	return &Console{
		out:  out,
		log:  zap.S().Named("console"),
		bars: make(map[session.Track]*progressbar.ProgressBar),
	}
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) OnIdle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalog = nil
	fmt.Fprintln(c.out, "Waiting for a video URL on the clipboard...")
}

func (c *Console) OnFetchStarted(url string) {
	c.printf("Fetching %s ...\n", url)
}

func (c *Console) OnCatalogReady(catalog *instantube.Catalog) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.catalog = catalog
	fmt.Fprintf(c.out, "\n%s\n", catalog.Title())
	for i, v := range catalog.Variants() {
		fmt.Fprintf(c.out, "  %d) %s\n", i+1, v)
	}
	fmt.Fprintln(c.out, "Enter a number to download, r to retry, q to quit.")
}

func (c *Console) OnDownloadStarted(job *session.Job) {
	c.printf("Downloading %q at %s into %s\n", job.Title, job.Video, job.Paths.Dir)
}

func (c *Console) OnJobStateChanged(_ session.JobID, state session.JobState) {
	switch state {
	case session.JobMuxing:
		c.mu.Lock()
		defer c.mu.Unlock()
		c.finishBars()
		fmt.Fprintln(c.out, "Merging video and audio...")
	case session.JobFailed:
		c.mu.Lock()
		defer c.mu.Unlock()
		c.finishBars()
	}
}

func (c *Console) OnDownloadProgress(p session.DownloadProgress) {
	c.mu.Lock()
	defer c.mu.Unlock()
	bar, ok := c.bars[p.Track]
	if !ok {
		total := p.Expected
		if total <= 0 {
			// Unknown size, show a spinner
			total = -1
		}
		bar = progressbar.NewOptions64(
			total,
			progressbar.OptionSetWriter(c.out),
			progressbar.OptionSetDescription(string(p.Track)),
			progressbar.OptionSetWidth(barWidth),
			progressbar.OptionShowBytes(true),
			progressbar.OptionOnCompletion(func() {
				fmt.Fprintln(c.out)
			}),
		)
		c.bars[p.Track] = bar
	}
	if p.Expected > 0 && bar.GetMax64() != p.Expected {
		bar.ChangeMax64(p.Expected)
	}
	if err := bar.Set64(p.Downloaded); err != nil {
		c.log.Debugf("progress bar: %v", err)
	}
}

func (c *Console) OnDownloadFinished(result session.JobResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finishBars()
	if result.Succeeded() {
		fmt.Fprintf(c.out, "%s (%s)\n", result.Message(), humanize.Bytes(uint64(result.Size)))
	} else {
		fmt.Fprintln(c.out, result.Message())
	}
	if c.catalog != nil {
		fmt.Fprintln(c.out, "Enter a number to download another version, r to retry, q to quit.")
	}
}

func (c *Console) OnError(message string) {
	c.printf("%s\n", message)
}

// finishBars must be called with the lock held.
func (c *Console) finishBars() {
	for track, bar := range c.bars {
		if !bar.IsFinished() {
			_ = bar.Finish()
		}
		delete(c.bars, track)
	}
}

type CommandKind int

const (
	CommandPoll CommandKind = iota
	CommandDownload
	CommandRetry
	CommandQuit
)

// Command is one parsed line of user input. Index is 0-based.
type Command struct {
	Kind  CommandKind
	Index int
}

var ErrUnknownCommand = errors.New("unknown command")

// ParseCommand understands a 1-based variant number, "r", "q" and an empty line (check the clipboard now).
func ParseCommand(line string) (Command, error) {
	line = strings.ToLower(strings.TrimSpace(line))
	switch line {
	case "":
		return Command{Kind: CommandPoll}, nil
	case "r", "retry":
		return Command{Kind: CommandRetry}, nil
	case "q", "quit", "exit":
		return Command{Kind: CommandQuit}, nil
	}
	n, err := strconv.Atoi(line)
	if err != nil || n < 1 {
		return Command{}, fmt.Errorf("%w: %q", ErrUnknownCommand, line)
	}
	return Command{Kind: CommandDownload, Index: n - 1}, nil
}

// Controller is the part of a session the console drives.
type Controller interface {
	Poll()
	Retry()
	StartDownloadIndex(i int) (*session.Task, error)
}

var _ Controller = (*session.Session)(nil)

// Run reads commands from in until it sees "q", reaches EOF, or ctx is done. Downloads are started without waiting,
// their outcome arrives through the presenter.
func (c *Console) Run(ctx context.Context, s Controller, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			cmd, err := ParseCommand(line)
			if err != nil {
				c.printf("%v\n", err)
				continue
			}
			switch cmd.Kind {
			case CommandPoll:
				s.Poll()
			case CommandRetry:
				s.Retry()
			case CommandQuit:
				return nil
			case CommandDownload:
				if _, err := s.StartDownloadIndex(cmd.Index); err != nil {
					c.log.Debugf("start download %d: %v", cmd.Index, err)
					c.printf("Error: %v\n", err)
				}
			}
		}
	}
}
