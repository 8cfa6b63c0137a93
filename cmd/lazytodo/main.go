package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var Version = "dev"

type rootFlags struct {
	configPath string
	dbPath     string
	user       string
	token      string
	web        bool
	port       int
}

func main() {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:          "lazytodo",
		Short:        "Personal to-do list for the terminal",
		Version:      Version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd.Context(), flags)
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file path (.json or .yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.dbPath, "db", "", "sqlite db path for the local backend")
	rootCmd.PersistentFlags().StringVar(&flags.user, "user", "", "user id for the local backend")
	rootCmd.PersistentFlags().IntVar(&flags.port, "port", 0, "web server port")
	rootCmd.Flags().StringVar(&flags.token, "token", "", "sign-in token for the remote backend")
	rootCmd.Flags().BoolVar(&flags.web, "web", false, "also start the web API")

	rootCmd.AddCommand(serveCmd(flags))
	rootCmd.AddCommand(tokenCmd(flags))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
