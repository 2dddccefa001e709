package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/printops/issue-service/internal/config"
	"github.com/printops/issue-service/internal/database"
	"github.com/printops/issue-service/internal/kafka"
	"github.com/printops/issue-service/internal/model"
	"github.com/spf13/cobra"
)

var replayEventsCmd = &cobra.Command{
	Use:   "replay-events",
	Short: "Re-emit all issues to Kafka for downstream accounting consumers",
	RunE:  runReplayEvents,
}

func init() {
	rootCmd.AddCommand(replayEventsCmd)
}

func runReplayEvents(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	_ = godotenv.Load("../../.env") // repo root when running from bin/
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if len(cfg.KafkaBrokers) == 0 || cfg.KafkaTopicIssue == "" {
		log.Println("replay-events: KAFKA_BROKERS and KAFKA_TOPIC_ISSUE are not set, nothing to do")
		return nil
	}
	conn, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}

	var issues []model.Issue
	if err := conn.Find(&issues).Error; err != nil {
		return fmt.Errorf("list issues: %w", err)
	}
	log.Printf("replay-events: found %d issues", len(issues))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopicIssue)
	defer producer.Close()
	for i := range issues {
		issue := &issues[i]
		payload := map[string]interface{}{
			"issue_id":      int64(issue.ID),
			"order_item_id": int64(issue.OrderItemID),
			"customer_id":   issue.CustomerID,
			"status":        string(issue.Status),
			"carrier_fault": string(issue.CarrierFault),
			"concluded":     issue.Concluded,
		}
		if issue.ResolvedType != nil {
			payload["resolved_type"] = string(*issue.ResolvedType)
		}
		producer.ProduceIssueEvent(ctx, "issue.replayed", payload)
		if (i+1)%50 == 0 || i == len(issues)-1 {
			log.Printf("replay-events: sent %d/%d events", i+1, len(issues))
		}
	}
	log.Printf("replay-events: done, sent %d events", len(issues))
	return nil
}
