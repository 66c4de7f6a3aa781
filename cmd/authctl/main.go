package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/authctl"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/mailer"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

// leadingArgs returns the arguments before the first flag; the rest is
// left to the config loader.
func leadingArgs(args []string) []string {
	for i, a := range args {
		if strings.HasPrefix(a, "-") {
			return args[:i]
		}
	}
	return args
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := logging.NewJSONLogger(os.Stderr, cfg.LogLevel)

	repos, err := server.OpenRepositories(ctx, cfg)
	if err != nil {
		return err
	}
	defer repos.Close(ctx)

	// the commands never send mail
	deps := services.NewDeps(cfg, repos, &mailer.Recorder{}, logger)
	app := authctl.NewApp(services.NewAdminService(deps), os.Stdin, os.Stdout)

	return app.Run(ctx, leadingArgs(os.Args[1:]))
}
