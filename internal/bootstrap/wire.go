package bootstrap

import (
	"github.com/rs/zerolog"

	"podium/internal/backend"
	"podium/internal/config"
	"podium/internal/history"
	"podium/internal/logging"
	"podium/internal/ports"
	"podium/internal/providers/mediaroom"
	"podium/internal/store"
	"podium/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Orchestrator *usecase.Orchestrator
	Store        *store.Store
	Config       config.Config
	Logger       zerolog.Logger
}

// Build wires all backend dependencies for the current runtime. The history
// cache is auxiliary; if it cannot be opened the dashboard runs without it.
func Build(eventSink ports.EventSink, tokens ports.TokenSource) (Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return Services{}, err
	}

	log := logging.New(logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})

	api := backend.New(backend.Config{
		BaseURL:        cfg.Backend.BaseURL,
		RequestTimeout: cfg.Backend.RequestTimeout,
	}, tokens, logging.Component(log, "backend"))

	media := mediaroom.NewProvider(mediaroom.Config{
		ServerURL:      cfg.Media.ServerURL,
		ConnectTimeout: cfg.Media.ConnectTimeout,
	}, logging.Component(log, "mediaroom"))

	var sessions ports.HistoryStore
	if historyStore, err := openHistory(cfg.History.Path); err != nil {
		log.Warn().Err(err).Str("path", cfg.History.Path).Msg("history cache unavailable")
	} else {
		sessions = historyStore
	}

	sharedStore := store.New()
	orchestrator := usecase.NewOrchestrator(
		api,
		media,
		sharedStore,
		eventSink,
		sessions,
		logging.Component(log, "orchestrator"),
		usecase.Config{
			InputLang:    cfg.Session.InputLang,
			OutputLangs:  cfg.Session.OutputLangs,
			HistoryLimit: cfg.History.Limit,
		},
	)

	return Services{
		Orchestrator: orchestrator,
		Store:        sharedStore,
		Config:       cfg,
		Logger:       log,
	}, nil
}

func openHistory(path string) (ports.HistoryStore, error) {
	return history.Open(path)
}
