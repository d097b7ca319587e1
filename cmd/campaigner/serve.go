package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/rahul/campaigner/internal/gateway"
	"github.com/rahul/campaigner/internal/observability"
	"github.com/rahul/campaigner/internal/server"
	"github.com/rahul/campaigner/internal/store"
	"github.com/rahul/campaigner/internal/wizard"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and chat gateways",
	Long: `Serve the campaign API and, when configured, the Telegram and Discord
intake wizards. Runs until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	if observability.IsTerminal() {
		observability.InitializeTerminal()
		defer observability.CleanupTerminal()
		// Route log output through the terminal mutex so it never
		// interrupts the status line's cursor save/restore sequence.
		log.SetOutput(observability.NewTermWriter())
	}

	logger := observability.NewLogger(cfg.App.LogDir)
	model, modelName, err := loadModel(cfg)
	if err != nil {
		return err
	}
	if model == nil {
		log.Printf("No provider enabled: plans use the fallback tables and copy generation is off")
	}
	service, err := buildService(cfg, model, modelName, logger)
	if err != nil {
		return err
	}

	db, err := store.NewStore(cfg.Memory.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := context.WithCancel(cmd.Context())
	defer stop()

	var drafts wizard.DraftStore = db
	if cfg.Memory.RedisURL != "" {
		rd, err := store.NewRedisDrafts(cfg.Memory.RedisURL)
		if err != nil {
			return err
		}
		defer rd.Close()
		if err := rd.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		log.Printf("Wizard drafts stored in Redis")
		drafts = rd
	}

	w := wizard.New(drafts, service, db)
	w.Transcript = db

	var gateways []gateway.Messenger
	if tgCfg, ok := cfg.GetTelegramConfig(); ok {
		tg, err := gateway.NewTelegramGateway(tgCfg.Token, w, tgCfg.AllowedChats)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		gateways = append(gateways, tg)
	}
	if dcCfg, ok := cfg.GetDiscordConfig(); ok {
		dc, err := gateway.NewDiscordGateway(dcCfg.Token, w)
		if err != nil {
			return fmt.Errorf("discord: %w", err)
		}
		gateways = append(gateways, dc)
	}
	for _, g := range gateways {
		go func(g gateway.Messenger) {
			if err := g.Start(); err != nil {
				log.Printf("\033[91m[ FAIL ] GATEWAY ERROR: %v\033[0m", err)
				stop()
			}
		}(g)
	}
	defer func() {
		for _, g := range gateways {
			if err := g.Stop(); err != nil {
				log.Printf("gateway stop: %v", err)
			}
		}
	}()

	go tick(ctx, time.Second, observability.PrintLiveStatus)
	go tick(ctx, 30*time.Second, func() {
		observability.Heartbeat()
		logger.LogHeartbeat()
	})
	observability.Heartbeat()

	err = server.New(service, db, logger).ListenAndServe(ctx, cfg.Server.Addr)
	log.Println("\033[95m[ EXIT ] campaigner stopped\033[0m")
	return err
}

func tick(ctx context.Context, every time.Duration, fn func()) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
