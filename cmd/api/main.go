package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"baccarat-backend/internal/config"
)

var version = "dev"

type CLI struct {
	Version kong.VersionFlag `short:"v" help:"Show version"`
	Env     string           `help:"Path to a .env file" default:".env" type:"path"`

	Serve  ServeCmd  `cmd:"" default:"1" help:"Run the baccarat HTTP API"`
	Token  TokenCmd  `cmd:"" help:"Open a player session and print its bearer token"`
	Verify VerifyCmd `cmd:"" help:"Replay a game from its public inputs"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("baccarat"),
		kong.Description("Provably fair single-table baccarat backend"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)

	if err := godotenv.Load(cli.Env); err != nil && !os.IsNotExist(err) {
		log.Warn("failed to read env file", "path", cli.Env, "err", err)
	}

	ctx.FatalIfErrorf(ctx.Run(&cli))
}

func loadConfig() (*config.Config, *log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, newLogger(cfg), nil
}

func newLogger(cfg *config.Config) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "baccarat",
	})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", cfg.LogLevel)
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.Env == "production" {
		logger.SetFormatter(log.JSONFormatter)
	}
	return logger
}
