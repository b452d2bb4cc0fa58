package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var authStrategy string
var listenAddr string

var rootCmd = &cobra.Command{
	Use:          "ohme",
	Short:        "Query charge session status from the Ohme cloud API",
	SilenceUsage: true,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Fetch and print the raw charge session list",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := fetchChargeSessions(cmd.Context())
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(sessions, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether any charge session is active",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := fetchChargeSessions(cmd.Context())
		if err != nil {
			return err
		}
		active, anomalies := IsAnySessionActive(sessions)
		if active {
			fmt.Println("charging")
		} else {
			fmt.Println("not charging")
		}
		for _, anomaly := range anomalies {
			fmt.Printf("unknown mode: %s\n", anomaly.Mode)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the debug status API",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := GetConfig()
		sender := NewHTTPClient()
		router := &StatusRouter{
			API:    &OhmeAPIImpl{Config: cfg, Sender: sender},
			Tokens: newTokenProvider(cfg, sender),
		}
		ServeHTTP(router, listenAddr)
	},
}

func newTokenProvider(cfg *Config, sender RequestSender) TokenProvider {
	if authStrategy == "password" {
		return &PasswordAuth{Config: cfg, Sender: sender}
	}
	return &InstallationAuth{Config: cfg, Sender: sender}
}

func fetchChargeSessions(ctx context.Context) ([]ChargeSession, error) {
	cfg := GetConfig()
	sender := NewHTTPClient()
	token, err := newTokenProvider(cfg, sender).ObtainToken(ctx)
	if err != nil {
		return nil, err
	}
	api := &OhmeAPIImpl{Config: cfg, Sender: sender}
	return api.FetchSessions(ctx, token)
}

func main() {
	log.Info("Starting Ohme charge session client...")
	GetConfig()
	rootCmd.PersistentFlags().StringVar(&authStrategy, "auth", "installation", "token exchange strategy (installation or password)")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "0.0.0.0:8080", "debug API listen address")
	rootCmd.AddCommand(sessionsCmd, statusCmd, serveCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
