package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/alanbriolat/instantube"
	"github.com/alanbriolat/instantube/async"
	"github.com/alanbriolat/instantube/clipboard"
	"github.com/alanbriolat/instantube/generic"
	"github.com/alanbriolat/instantube/internal/console"
	"github.com/alanbriolat/instantube/internal/session"
	"github.com/alanbriolat/instantube/mux"
	_ "github.com/alanbriolat/instantube/provider/youtube"
)

func main() {
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	logger, err := config.Build()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}
	defer logger.Sync()
	zap.RedirectStdLog(logger)
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = instantube.WithLogger(ctx, logger)

	app := &cli.App{
		Name:      instantube.AppName,
		Usage:     "download the YouTube video whose URL is on the clipboard",
		ArgsUsage: "[URL]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "dir",
				Usage: "save downloads to `DIR` (default ~/Downloads/instantube)",
			},
			&cli.DurationFlag{
				Name:  "interval",
				Value: session.DefaultConfig.PollInterval,
				Usage: "how often to check the clipboard",
			},
			&cli.StringFlag{
				Name:  "family",
				Value: session.DefaultConfig.StreamFamily,
				Usage: "container `FAMILY` of the streams to offer (webm or mp4)",
			},
			&cli.StringFlag{
				Name:  "template",
				Value: instantube.DefaultStemTemplate,
				Usage: "text/template for output file names, with .Title .Resolution .Height .FrameRate",
			},
			&cli.BoolFlag{
				Name:  "parallel",
				Usage: "download the video and audio tracks at the same time",
			},
			&cli.BoolFlag{
				Name:  "keep-temp",
				Usage: "keep temporary track files when a download fails",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("debug") {
				config.Level.SetLevel(zap.DebugLevel)
			}
			return run(ctx, c)
		},
		HideHelpCommand: true,
	}

	result := async.Run(func() error { return app.Run(os.Args) })

	select {
	case err = <-result:
		if err != nil {
			logger.Fatal(err.Error())
		}
	case <-ctx.Done():
		stop()
		err = <-result
		if err != nil {
			logger.Fatal(err.Error())
		}
	}
}

func sessionConfig(c *cli.Context) (session.Config, error) {
	cfg := session.DefaultConfig
	cfg.PollInterval = c.Duration("interval")
	cfg.StreamFamily = c.String("family")
	cfg.ParallelTracks = c.Bool("parallel")
	cfg.KeepTempOnFailure = c.Bool("keep-temp")

	dir := c.String("dir")
	if dir == "" {
		var err error
		if dir, err = instantube.DefaultDownloadDir(); err != nil {
			return cfg, err
		}
	}
	cfg.Output = instantube.NewOutputConfig(dir)
	tmpl, err := instantube.ParseStemTemplate(c.String("template"))
	if err != nil {
		return cfg, fmt.Errorf("invalid --template: %w", err)
	}
	cfg.Output.StemTemplate = tmpl

	muxer := mux.NewFFmpeg()
	if !muxer.Available() {
		return cfg, instantube.ErrFFmpegNotFound
	}
	cfg.Muxer = muxer

	if url := c.Args().First(); url != "" {
		cfg.Clipboard = clipboard.Static(url)
	} else {
		cfg.Clipboard = clipboard.System{}
	}
	return cfg, nil
}

func run(ctx context.Context, c *cli.Context) error {
	logger := zap.S()
	cfg, err := sessionConfig(c)
	if err != nil {
		return err
	}
	logger.Debugf("saving to %s, polling every %v", cfg.Output.Dir, cfg.PollInterval)

	s, err := session.New(cfg, ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	con := console.New(os.Stdout)
	presented, err := s.Present(con)
	if err != nil {
		return err
	}
	s.Poll()

	input := async.RunResult(func() (generic.Void, error) {
		return generic.NewVoid(), con.Run(ctx, s, os.Stdin)
	})
	select {
	case result := <-input:
		err = result.Error
	case <-ctx.Done():
	}
	if s.InProgress() {
		logger.Warn("cancelling download in progress")
	}
	s.Close()
	<-presented
	return err
}
