/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/capoo-pm/apiserver/config"
	"github.com/capoo-pm/apiserver/internal/events"
	"github.com/capoo-pm/apiserver/internal/logging"
	"github.com/capoo-pm/apiserver/internal/mq"
	"github.com/spf13/cobra"
)

// eventsCmd groups commands that work with the domain event queue.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect domain events",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail <channel>",
	Short: "Log events published on a channel until interrupted",
	Long: `Subscribes to a channel (for example user.registered or
user.profile_updated) and logs every event received.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := logging.New(cfg.Log, cfg.Env)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		queue, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is not configured")
		}
		defer queue.Close()

		channel := args[0]
		logger.InfoContext(ctx, "tailing events", slog.String("channel", channel))

		err = queue.Subscribe(ctx, channel, func(ctx context.Context, msg mq.Message) error {
			event, err := events.Decode(msg)
			if err != nil {
				logger.WarnContext(ctx, "undecodable event", slog.String("id", msg.ID), slog.Any("error", err))
				return nil
			}
			logger.InfoContext(ctx, "event",
				slog.String("type", event.Type),
				slog.String("user_id", event.UserID.String()),
				slog.String("email", event.Email),
				slog.Time("occurred_at", event.OccurredAt),
			)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("subscribe %s: %w", channel, err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
