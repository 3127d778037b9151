// Package main provides the mediaq CLI entry point.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/osa030/mediaqueue/internal/app/client"
	"github.com/osa030/mediaqueue/internal/app/notification"
	"github.com/osa030/mediaqueue/internal/app/playback"
	"github.com/osa030/mediaqueue/internal/app/queue"
	"github.com/osa030/mediaqueue/internal/domain/media"
	"github.com/osa030/mediaqueue/internal/infra/config"
	"github.com/osa030/mediaqueue/internal/infra/logger"
	"github.com/osa030/mediaqueue/internal/infra/plugins"
)

var (
	app        = kingpin.New("mediaq", "Media queue engine")
	configPath = app.Flag("config", "Path to config file (built-in defaults when empty)").Envar("MEDIAQ_CONFIG").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()

	// extractors command
	extractorsCmd = app.Command("extractors", "List configured extractors by priority")

	// storages command
	storagesCmd = app.Command("storages", "List registered queue storages and extractor types")

	// extract command
	extractCmd   = app.Command("extract", "Resolve input to media without playing it")
	extractInput = extractCmd.Arg("input", "Text to resolve").Required().String()

	// play command
	playCmd    = app.Command("play", "Queue inputs and play them in order; every item of a list input is played")
	playInputs = playCmd.Arg("input", "Texts to resolve and play").Required().Strings()
	playOut    = playCmd.Flag("out", "Write streams to this file (default: discard)").Short('o').String()
)

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if command == storagesCmd.FullCommand() {
		printStorages()
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Override with command-line flags if specified
	loggerConfig := logger.Config{
		Output: cfg.Log.Output,
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
	}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.Output = "file"
		loggerConfig.File = *logfile
	}
	closer, err := logger.Init(loggerConfig)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer closer.Close()

	if err := run(command, cfg); err != nil {
		zlog.Error().Msgf("%s failed: %v", command, err)
		closer.Close()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// run executes the selected command. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(command string, cfg *config.Config) error {
	c, err := client.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case extractorsCmd.FullCommand():
		printExtractors(c)
		return nil
	case extractCmd.FullCommand():
		return extract(ctx, c, *extractInput)
	case playCmd.FullCommand():
		return play(ctx, c, cfg.Queue.DefaultID, *playInputs, *playOut)
	}
	return errors.Newf("unknown command %q", command)
}

func printStorages() {
	fmt.Println("Queue Storages:")
	for _, name := range queue.RegisteredStorages() {
		fmt.Printf("  %s\n", name)
	}
	fmt.Println("Extractor Types:")
	for _, typ := range plugins.Types() {
		fmt.Printf("  %s\n", typ)
	}
}

func printExtractors(c *client.Client) {
	values := c.Extractors().Values()
	if len(values) == 0 {
		fmt.Println("No extractors configured")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Name", "Priority"})
	for _, e := range values {
		t.AppendRow(table.Row{e.ID(), e.Name(), e.Priority()})
	}
	t.Render()
}

func extract(ctx context.Context, c *client.Client, input string) error {
	res, err := c.Extractors().Extract(ctx, input)
	if err != nil {
		return err
	}
	if res.IsNone() {
		fmt.Printf("No extractor accepted %q\n", input)
		return nil
	}
	printMedia(res.Items())
	return nil
}

func play(ctx context.Context, c *client.Client, queueID string, inputs []string, outPath string) error {
	var out io.Writer = io.Discard
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return errors.Wrap(err, "failed to create output file")
		}
		defer f.Close()
		out = f
	}

	q := c.Queues().Create(queueID)
	player, err := c.NewPlayer(q, out)
	if err != nil {
		return err
	}
	defer player.Close()

	// Track ends are observed through the notification fan-out.
	notifier := notification.NewManager()
	defer notifier.Close()
	ended := make(chan playback.Event, 1)
	notifier.Subscribe(notification.SubscriberFunc(func(n notification.Notification) error {
		zlog.Debug().Msgf("event #%d: type=%s queue=%s position=%d state=%s", n.SequenceNo, n.Event.Type, n.Event.QueueID, n.Event.Position, n.Event.State)
		if n.Event.Type == playback.EventTrackEnded || n.Event.Type == playback.EventError {
			ended <- n.Event
		}
		return nil
	}))
	go notifier.Forward(ctx, player.Events())

	wait := func() error {
		select {
		case e := <-ended:
			return e.Err
		case <-ctx.Done():
			zlog.Info().Msg("Received shutdown signal...")
			if err := player.Stop(); err != nil {
				return err
			}
			return ctx.Err()
		}
	}

	for _, input := range inputs {
		// A list result (a directory) appends several items; play all of them.
		added := q.Size()
		m, err := player.Play(ctx, queue.ByText(input))
		if err != nil {
			return errors.Wrapf(err, "failed to play %q", input)
		}
		end := q.Size()
		fmt.Printf("Playing: %s (%s)\n", m.Title(), m.URL())
		if err := wait(); err != nil {
			return err
		}

		for pos := added + 1; pos < end; pos++ {
			m, err := player.Play(ctx, queue.ByPosition(pos))
			if err != nil {
				return errors.Wrapf(err, "failed to play %q item %d", input, pos-added)
			}
			fmt.Printf("Playing: %s (%s)\n", m.Title(), m.URL())
			if err := wait(); err != nil {
				return err
			}
		}
	}

	fmt.Printf("\nQueue %s:\n", q.ID())
	printMedia(q.All())
	return nil
}

func printMedia(items []*media.Media) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Title", "URL", "Extractor"})
	for i, m := range items {
		t.AppendRow(table.Row{i, m.Title(), m.URL(), m.Extractor().ID()})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d item%s", len(items), lo.Ternary(len(items) == 1, "", "s"))})
	t.Render()
}
