package main

import (
	"fmt"
	"os"

	"github.com/bandemoon/bandemoon-go/api"
	"github.com/bandemoon/bandemoon-go/credentials"
	"github.com/bandemoon/bandemoon-go/credentials/filerepo"
	"github.com/bandemoon/bandemoon-go/internal/config"
	"github.com/bandemoon/bandemoon-go/session"
	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.New()
	configureLogging(cfg)

	repo, err := filerepo.New(cfg.GetDataFolder())
	if err != nil {
		return fmt.Errorf("failed to open credential storage: %w", err)
	}
	store := credentials.NewStore(repo)

	sess := session.New(store)
	sess.Restore()

	// The session's token listener is the one registration that keeps the
	// mirror consistent with silent refreshes inside the client.
	client, err := api.New(cfg, store, api.WithListener(sess.UpdateTokens))
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	return rootCmd(cfg, client, sess, store).Execute()
}

func configureLogging(cfg config.Config) {
	level, err := zerolog.ParseLevel(cfg.GetLogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
