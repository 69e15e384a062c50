package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"sitechat/internal/config"
	"sitechat/internal/gateway"
	"sitechat/internal/session"
	"sitechat/internal/store"
	"sitechat/internal/tui"
)

func main() {
	// .env is optional; the system environment is used either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := newLogger(cfg)

	st, err := store.New(cfg.StateDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open state store")
	}

	gw := gateway.New(cfg.APIBaseURL, cfg.AdviceURL, log,
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		gateway.WithPageContext("sitechat-widget/terminal", "direct"),
	)

	view := tui.NewView()
	ctrl := session.New(session.Config{
		Store:          st,
		Gateway:        gw,
		View:           view,
		Log:            log,
		AutoPopup:      cfg.AutoPopup,
		AutoPopupDelay: cfg.AutoPopupDelay(),
	})

	p := tea.NewProgram(tui.NewModel(ctrl))
	view.Attach(p)

	// Restore runs once the program loop is receiving.
	go ctrl.Init(context.Background())

	if _, err := p.Run(); err != nil {
		log.Fatal().Err(err).Msg("widget terminated")
	}
	ctrl.Teardown()
}

// newLogger writes to a file under the state dir: the terminal belongs to
// the widget itself.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if err := os.MkdirAll(cfg.StateDir, 0o755); err != nil {
		return zerolog.Nop()
	}
	f, err := os.OpenFile(filepath.Join(cfg.StateDir, "widget.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop()
	}
	return zerolog.New(f).With().Timestamp().Logger().Level(level)
}
