package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/signal-desk/backend/internal/storage/models"
	"github.com/signal-desk/backend/pkg/logger"
)

// Client caches per-signal end-client predictions. Predictions are derived,
// best-effort data, so a TTL'd cache is their only persistence.
type Client struct {
	client *redis.Client
}

func NewClient(host string, port int, password string, db int) (*Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis client initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &Client{client: client}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

func predictionKey(signalID string) string {
	return "inference:" + signalID
}

func (c *Client) SetPredictions(ctx context.Context, signalID string, predictions []models.ClientPrediction, ttl time.Duration) error {
	data, err := json.Marshal(predictions)
	if err != nil {
		return fmt.Errorf("failed to marshal predictions: %w", err)
	}

	err = c.client.Set(ctx, predictionKey(signalID), data, ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to set prediction cache: %w", err)
	}

	logger.Debug("Predictions cached", zap.String("signal_id", signalID), zap.Duration("ttl", ttl))
	return nil
}

func (c *Client) GetPredictions(ctx context.Context, signalID string) ([]models.ClientPrediction, bool, error) {
	data, err := c.client.Get(ctx, predictionKey(signalID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get prediction cache: %w", err)
	}

	var predictions []models.ClientPrediction
	err = json.Unmarshal(data, &predictions)
	if err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal predictions: %w", err)
	}

	return predictions, true, nil
}
