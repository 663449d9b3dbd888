package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/praetorian-inc/docsearch/pkg/scanner"
	"github.com/praetorian-inc/docsearch/pkg/serve"
	"github.com/spf13/cobra"
)

var serveRules ruleFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run as streaming classification server",
	Long: `Run docsearch as a long-lived streaming server that accepts classify requests
via stdin and outputs scores via stdout using NDJSON format.

The process compiles the rules once at startup and processes requests until
stdin closes, a close request arrives or SIGTERM is received.`,
	RunE: runServe,
}

func init() {
	serveRules.register(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	serveRules.apply(cmd, cfg)

	rules, err := loadRules(cfg)
	if err != nil {
		return err
	}

	c, err := newClassifier(cfg, rules)
	if err != nil {
		return err
	}
	core, err := scanner.NewCoreWithClassifier(c, debugLogger())
	if err != nil {
		return err
	}
	defer core.Close()

	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-sigChan
		cancel()
	}()

	srv := serve.NewServer(core, cmd.InOrStdin(), cmd.OutOrStdout())
	return srv.Run(ctx)
}
