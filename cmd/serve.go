package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/keyword-cli/internal/server"
	"github.com/sells-group/keyword-cli/internal/session"
)

var (
	servePort    int
	serveOffline bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web API for uploading inputs and downloading keyword files",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := initPipeline(cfg, serveOffline)
		if err != nil {
			return err
		}

		sessions := session.NewStore(time.Duration(cfg.Server.SessionTTLMins) * time.Minute)
		go sessions.Run(ctx, time.Minute)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		return server.Run(ctx, fmt.Sprintf(":%d", port), server.New(p, sessions).Handler())
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveOffline, "offline", false, "use stub providers instead of the Naver APIs")
	rootCmd.AddCommand(serveCmd)
}
