package commands

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/khamrai2017/finance-tracker/internal/client"
	"github.com/khamrai2017/finance-tracker/internal/domain/import/parser"
	importsvc "github.com/khamrai2017/finance-tracker/internal/domain/import/service"
	"github.com/khamrai2017/finance-tracker/pkg/config"
)

// deps bundles what every subcommand needs: configuration, a logger, the
// backend client and the import service.
type deps struct {
	Config  *config.Config
	Logger  *slog.Logger
	Client  *client.Client
	Service *importsvc.Service
}

func buildDeps() (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	logger := newLogger(cfg.Logging)
	backend := client.New(cfg.Backend.BaseURL, logger,
		client.WithToken(cfg.Backend.Token),
		client.WithHTTPClient(&http.Client{Timeout: cfg.Backend.Timeout}))

	return &deps{
		Config:  cfg,
		Logger:  logger,
		Client:  backend,
		Service: importsvc.New(logger),
	}, nil
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// parseStatement opens a statement file and parses it by extension.
func parseStatement(path string) (*parser.Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xls":
		return parser.ParseXLSX(f)
	case ".csv", ".txt", ".tsv":
		return parser.ParseCSV(f)
	default:
		return nil, fmt.Errorf("unsupported statement format %q", filepath.Ext(path))
	}
}
