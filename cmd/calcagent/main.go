package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/calcagent/calcagent/internal/agent"
	"github.com/calcagent/calcagent/internal/config"
	"github.com/calcagent/calcagent/internal/logging"
	"github.com/calcagent/calcagent/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	provider string
	model    string
	verbose  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "calcagent",
		Short:        "Natural-language calculator backed by a tool-calling model",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "Model provider: openai or anthropic (overrides MODEL_PROVIDER)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "Model name (overrides MODEL_NAME)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	askCmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Answer one arithmetic question and print the JSON reply",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	rootCmd.AddCommand(serveCmd, askCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if provider != "" {
		if err := cfg.SetProvider(provider); err != nil {
			return nil, err
		}
	}
	if model != "" {
		cfg.ModelName = model
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logging.Setup(cfg.LogLevel, cfg.IsDevelopment())

	srv, err := server.New(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Logs go to stderr so stdout carries only the reply
	logging.SetupWriter(os.Stderr, cfg.LogLevel, cfg.IsDevelopment())

	orchestrator := server.NewOrchestrator(cfg, server.NewModelClient(cfg))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	reply, handleErr := orchestrator.Handle(ctx, strings.Join(args, " "))

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(reply); err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}
	if handleErr != nil {
		return fmt.Errorf("exit status %d: %s", agent.StatusCode(handleErr), agent.ErrorMessage(handleErr))
	}
	return nil
}
