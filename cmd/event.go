package cmd

import (
	"context"
	"time"

	"github.com/frahmantamala/bizanalytics/internal/core/events"
	"github.com/frahmantamala/bizanalytics/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Inspect the in-process event bus: publish sample events and watch delivery.`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [company-id] [event-type]",
	Short: "Publish a test event on a company topic",
	Long:  `Publish a test event to a company's topic and log what a subscriber receives.`,
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent(cmd.Context(), args[0], args[1])
	},
}

var eventData string

func publishTestEvent(ctx context.Context, companyID, eventType string) {
	lg := logger.LoggerWrapper()
	bus := events.NewEventBus(lg)
	topic := events.CompanyTopic(companyID)

	ch, unsubscribe := bus.SubscribeChan(topic, 1)
	defer unsubscribe()

	evt := events.NewBaseEvent(eventType, map[string]interface{}{
		"company_id": companyID,
		"message":    eventData,
		"source":     "cli-command",
	})

	lg.Info("publishing test event", "topic", topic, "event_type", eventType, "event_id", evt.ID)
	if err := bus.PublishSync(ctx, topic, evt); err != nil {
		lg.Error("failed to publish event", "error", err)
		return
	}

	select {
	case got := <-ch:
		lg.Info("subscriber received event",
			"event_id", got.EventID(),
			"event_type", got.EventType(),
			"payload", got.Payload())
	case <-time.After(time.Second):
		lg.Warn("no delivery within a second", "topic", topic)
	}
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
