package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"table-service-go/internal/domain"
	"table-service-go/internal/mq"
)

// ticketsCmd is the station printer: it reads the station's ticket queue and
// logs one line per ticket.
var ticketsCmd = &cobra.Command{
	Use:   "tickets",
	Short: "Consume kitchen tickets for one station from RabbitMQ",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.RabbitMQ.URL == "" {
			return fmt.Errorf("rabbitmq.url is not configured")
		}
		raw, _ := cmd.Flags().GetString("station")
		st, ok := domain.ParseStation(raw)
		if !ok {
			return fmt.Errorf("unknown station %q (want cold or hot)", raw)
		}

		c, err := mq.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			return err
		}
		defer c.Close()
		if err := c.DeclareExchange(cfg.RabbitMQ.Exchange); err != nil {
			return err
		}
		queue, err := c.BindStation(cfg.RabbitMQ.Exchange, st)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger.Info("waiting for tickets", "station", st, "queue", queue)
		return mq.ConsumeTickets(ctx, c, queue, "tickets-"+string(st), logger, func(ev domain.Event) error {
			logger.Info("ticket", "type", ev.Type, "table_id", ev.TableID, "order_id", ev.OrderID, "item_id", ev.ItemID, "at", ev.At)
			return nil
		})
	},
}

func init() {
	ticketsCmd.Flags().String("station", "hot", "station to print for (cold or hot)")
}
