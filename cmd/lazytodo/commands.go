package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/Joseda-hg/lazytodo/internal/config"
	"github.com/Joseda-hg/lazytodo/internal/identity"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/tui"
)

func runTUI(ctx context.Context, flags *rootFlags) error {
	// The terminal belongs to gocui, so log lines go to a file instead.
	restore, err := redirectLogs(flags)
	if err != nil {
		return err
	}
	defer restore()

	a, err := newApp(ctx, flags)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.WebEnabled {
		webCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		srv := a.webServer()
		go func() {
			if err := serveWeb(webCtx, srv); err != nil {
				log.Printf("web server error: %v", err)
			}
		}()
	}

	return tui.Run(ctx, a.engine, a.notices)
}

func redirectLogs(flags *rootFlags) (func(), error) {
	cfgPath := flags.configPath
	if cfgPath == "" {
		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		cfgPath = defaultPath
	}
	logPath := filepath.Join(filepath.Dir(cfgPath), "lazytodo.log")
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}

	previousLog := log.Writer()
	previousGin := gin.DefaultWriter
	log.SetOutput(file)
	gin.DefaultWriter = file
	return func() {
		log.SetOutput(previousLog)
		gin.DefaultWriter = previousGin
		_ = file.Close()
	}, nil
}

func serveCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web API without the terminal UI",
		Long: `Run the web API only.

Examples:
  lazytodo serve --port 8080
  LAZYTODO_BACKEND=remote lazytodo serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gin.SetMode(gin.ReleaseMode)
			a, err := newApp(cmd.Context(), flags)
			if err != nil {
				return err
			}
			defer a.Close()
			return serveWeb(cmd.Context(), a.webServer())
		},
	}
	return cmd
}

func tokenCmd(flags *rootFlags) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token [user]",
		Short: "Mint a sign-in token for a user id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(flags)
			if err != nil {
				return err
			}
			tokens, err := identity.NewTokens(cfg.JWTSecret, ttl)
			if err != nil {
				return fmt.Errorf("set jwt_secret or LAZYTODO_JWT_SECRET first: %w", err)
			}
			token, err := tokens.Mint(model.Identity(args[0]))
			if err != nil {
				return err
			}
			return writeLine(cmd.OutOrStdout(), token)
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", tokenTTL, "token lifetime")
	return cmd
}

func writeLine(w io.Writer, line string) error {
	_, err := fmt.Fprintln(w, line)
	return err
}
