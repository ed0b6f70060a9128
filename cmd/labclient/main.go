// cmd/labclient/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/gestured/labstream/internal/api"
	"github.com/gestured/labstream/internal/capture"
	"github.com/gestured/labstream/internal/config"
	"github.com/gestured/labstream/internal/display"
	"github.com/gestured/labstream/internal/models"
	"github.com/gestured/labstream/internal/session"
	"github.com/gestured/labstream/internal/transport"
)

func main() {
	logger := logrus.New()
	for _, arg := range os.Args[1:] {
		if arg == "-v" {
			logger.SetLevel(logrus.DebugLevel)
		}
	}

	cfg := config.FromEnv()
	client := api.NewClient(cfg.APIBaseURL, logger)

	// Activate the requested litmus paper before streaming begins.
	mode := models.IndicatorMode(os.Getenv("LABSTREAM_REACTION"))
	if !mode.Known() {
		mode = models.IndicatorRedLitmus
	}
	if err := client.StartReaction(context.Background(), mode); err != nil {
		logger.WithError(err).Warn("start reaction failed, continuing with server state")
	}

	var sink transport.FrameSink = display.Discard{}
	if os.Getenv("LABSTREAM_HEADLESS") == "" {
		win := display.NewWindow("GesturEd Lab")
		defer win.Close()
		sink = win
	}

	sess := session.New(session.Options{
		Log:          logger,
		API:          client,
		TransportURL: cfg.TransportURL,
		OpenDevice: func() (capture.Device, error) {
			return capture.Open(cfg.CameraDevice)
		},
		Sink:          sink,
		FrameInterval: cfg.FrameInterval,
		PollInterval:  cfg.PollInterval,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
		sig := <-sigs
		logger.WithField("signal", sig).Info("terminating")
		cancel()
	}()

	// Optional pre-selected chemical, e.g. LABSTREAM_CHEMICAL=HCl.
	if id := os.Getenv("LABSTREAM_CHEMICAL"); id != "" {
		go func() {
			if err := sess.Select(ctx, id); err != nil {
				logger.WithError(err).Warn("chemical selection failed")
			}
		}()
	}

	if err := sess.Run(ctx); err != nil {
		logger.WithError(err).Error("session ended with error")
		os.Exit(1)
	}
}
