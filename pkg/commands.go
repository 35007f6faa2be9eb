package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/fatih/color"
	pkg "github.com/gvlarp/renfield/pkg/internal"
	"github.com/gvlarp/renfield/pkg/internal/auth"
	"github.com/gvlarp/renfield/pkg/internal/cache"
	"github.com/gvlarp/renfield/pkg/internal/config"
	"github.com/gvlarp/renfield/pkg/internal/database"
	"github.com/gvlarp/renfield/pkg/internal/http"
	"github.com/gvlarp/renfield/pkg/internal/http/api"
	"github.com/gvlarp/renfield/pkg/internal/http/exts"
	"github.com/gvlarp/renfield/pkg/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "renfield",
	Short:         "Voting bot for chat communities",
	Version:       pkg.AppVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the interaction webhook",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return logged(err, "An error occurred when loading settings.")
		}
		gw, err := database.NewGatewayWithRetry(cmd.Context(), cfg)
		if err != nil {
			return logged(err, "An error occurred when connect to database.")
		}
		defer gw.Close()
		if err := database.RunMigration(gw.DB()); err != nil {
			return logged(err, "An error occurred when running database auto migration.")
		}
		log.Info().Msg("Database schema is up to date.")
		return nil
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Publish the vote slash command to the chat platform",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return logged(err, "An error occurred when loading settings.")
		}
		if cfg.Discord.Token == "" || cfg.Discord.ApplicationID == "" {
			return logged(fmt.Errorf("discord.token and discord.application_id are required"), "Unable to register commands.")
		}

		session, err := discordgo.New("Bot " + cfg.Discord.Token)
		if err != nil {
			return logged(err, "An error occurred when creating discord session.")
		}
		registered, err := session.ApplicationCommandBulkOverwrite(
			cfg.Discord.ApplicationID,
			cfg.Discord.GuildID,
			[]*discordgo.ApplicationCommand{api.VoteCommand()},
		)
		if err != nil {
			return logged(err, "An error occurred when registering commands.")
		}
		log.Info().Int("count", len(registered)).Str("guild", cfg.Discord.GuildID).Msg("Registered commands.")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(serveCmd, migrateCmd, registerCmd)
}

func logged(err error, msg string) error {
	log.Error().Err(err).Msg(msg)
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	// Booting screen
	fmt.Println(color.YellowString(" ____             __ _      _     _\n|  _ \\ ___ _ __  / _(_) ___| | __| |\n| |_) / _ \\ '_ \\| |_| |/ _ \\ |/ _` |\n|  _ <  __/ | | |  _| |  __/ | (_| |\n|_| \\_\\___|_| |_|_| |_|\\___|_|\\__,_|"))
	fmt.Printf("%s v%s\n", color.New(color.FgHiYellow).Add(color.Bold).Sprintf("Renfield"), pkg.AppVersion)
	fmt.Printf("Votes, ballots and results for your community\n")
	color.HiBlack("=====================================================\n")

	// Load settings
	cfg, err := config.Load()
	if err != nil {
		return logged(err, "An error occurred when loading settings.")
	}

	publicKey, err := exts.ParsePublicKey(cfg.Discord.PublicKey)
	if err != nil {
		return logged(err, "An error occurred when reading discord public key.")
	}

	// Connect to database
	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	gw, err := database.NewGatewayWithRetry(ctx, cfg)
	cancel()
	if err != nil {
		return logged(err, "An error occurred when connect to database.")
	} else if err := database.RunMigration(gw.DB()); err != nil {
		return logged(err, "An error occurred when running database auto migration.")
	}
	defer gw.Close()

	// Cache
	var marshal *marshaler.Marshaler
	if cfg.Cache.Enabled {
		if store, err := cache.NewStore(); err != nil {
			log.Error().Err(err).Msg("An error occurred when creating cache. Group search caching will be disabled.")
		} else {
			marshal = cache.NewMarshaler(store)
		}
	}

	gate := auth.NewRoleGate(cfg.Security.RequiredRoles)
	if !gate.Enabled() {
		log.Warn().Msg("No required roles configured, every server member may use vote commands.")
	}

	groups := services.NewGroupRegistry(gw, marshal, cfg.Cache.TTL)
	votes := services.NewVoteService(gw, groups)

	// Configure timed tasks
	quartz := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(&log.Logger)))
	if _, err := quartz.AddFunc(cfg.Cron.HealthCheck, func() { services.DoStoreHealthCheck(gw) }); err != nil {
		return logged(err, "An error occurred when scheduling timed tasks.")
	}
	quartz.Start()

	// Server
	server := http.NewServer(cfg, api.NewHandler(votes, groups, gate, gw, cfg.HTTP.InteractionTimeout), publicKey)
	go server.Listen()
	log.Info().Str("bind", cfg.HTTP.Bind).Msg("Renfield is listening for interactions.")

	// Messages
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	if err := server.Shutdown(); err != nil {
		log.Warn().Err(err).Msg("An error occurred when shutting down server...")
	}
	<-quartz.Stop().Done()

	return nil
}
