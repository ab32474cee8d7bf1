package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcin-skalski/seat-monitor/internal/catalog"
	"github.com/marcin-skalski/seat-monitor/internal/config"
	"github.com/marcin-skalski/seat-monitor/internal/logging"
	"github.com/marcin-skalski/seat-monitor/internal/monitor"
	"github.com/marcin-skalski/seat-monitor/internal/notify"
	"github.com/marcin-skalski/seat-monitor/internal/tui"
	"github.com/mattn/go-isatty"
)

func main() {
	singleRun := flag.Bool("single-run", false, "run one pass over the watchlist and exit")
	duration := flag.Int("duration", 0, "run for N seconds then exit (0 = run until killed)")
	configPath := flag.String("config", "", "path to config file (default: built-in watchlist)")
	noTUI := flag.Bool("no-tui", false, "disable the status board")
	flag.Parse()

	if *duration < 0 {
		fmt.Fprintln(os.Stderr, "error: -duration must not be negative")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	opts := monitor.OptionsFromConfig(cfg, *singleRun, time.Duration(*duration)*time.Second)

	// The status board is only useful for a long-running monitor on a terminal.
	enableTUI := !*noTUI && os.Getenv("SEAT_MONITOR_TUI") != "0" &&
		opts.Mode() == monitor.ModeContinuous &&
		isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd())

	logger, logCloser, err := logging.Setup(cfg.LogFile, cfg.Log.Level, enableTUI)
	if err != nil {
		fmt.Fprintf(os.Stderr, "setup logger: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	cat := catalog.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.SearchPath, cfg.Catalog.Timeout, logger)
	n, err := notify.New(notify.Config{
		Token:   cfg.Telegram.Token,
		ChatID:  cfg.Telegram.ChatID,
		APIURL:  cfg.Telegram.APIURL,
		Timeout: cfg.Telegram.Timeout,
	}, logger)
	if err != nil {
		logger.Error("setup notifier", "err", err)
		os.Exit(1)
	}

	m := monitor.New(opts, cat, n, monitor.RealClock(), logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !enableTUI {
		logger.Info("seat-monitor starting (headless)", "config", *configPath)
		if err := m.Run(ctx); err != nil {
			logger.Error("monitor error", "err", err)
			logCloser.Close()
			os.Exit(1)
		}
		return
	}

	// TUI mode: monitor in background, board in foreground
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("seat-monitor starting in background", "config", *configPath)
		errCh <- m.Run(runCtx)
	}()

	p := tea.NewProgram(tui.NewModel(m, cfg.TUI.RefreshInterval), tea.WithAltScreen(), tea.WithContext(ctx))

	// Exit the board if the monitor stops on its own
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := <-errCh; err != nil {
			logger.Error("monitor error", "err", err)
		}
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		cancel()
		<-done
		logCloser.Close()
		os.Exit(1)
	}
	cancel()
	<-done
	logger.Info("seat-monitor stopped")
}
