package main

import (
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Chamindu77/SFBS-Backend/internal/config"
	"github.com/Chamindu77/SFBS-Backend/internal/mq"
	"github.com/Chamindu77/SFBS-Backend/internal/notify"
	"github.com/Chamindu77/SFBS-Backend/internal/worker"
)

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Consume booking.created events and send confirmation emails",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			app, err := config.Load()
			if err != nil {
				return err
			}
			if app.RabbitURL == "" {
				return fmt.Errorf("RABBIT_URL is required for the worker")
			}

			var n notify.Notifier = notify.LogNotifier{}
			if app.SMTPHost != "" {
				email, err := notify.NewEmailNotifier(notify.SMTPConfig{
					Host:     app.SMTPHost,
					Port:     app.SMTPPort,
					Username: app.SMTPUser,
					Password: app.SMTPPassword,
					From:     app.SMTPFrom,
				})
				if err != nil {
					return err
				}
				n = email
			} else {
				log.Printf("[worker] SMTP_HOST not set, confirmations are only logged")
			}

			cons, err := mq.NewConsumer(app.RabbitURL, app.BookingExchange, app.NotifyQueue, []string{notify.RKBookingCreated})
			if err != nil {
				return err
			}
			defer cons.Close()

			log.Printf("[worker] consuming %s from %s", notify.RKBookingCreated, app.NotifyQueue)
			return worker.New(cons, n).Run(ctx)
		},
	}
}
