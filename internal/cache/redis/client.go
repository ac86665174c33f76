package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/artwin/feedback-hub/internal/feedback"
	"github.com/artwin/feedback-hub/pkg/logger"
)

// Client caches AI analysis results so re-analyzing the same message
// does not cost another completion call. Cache failures degrade to a
// miss; nothing ever fails because redis is down.
type Client struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(host string, port int, password string, db int, ttl time.Duration) (*Client, error) {
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

	return &Client{client: client, ttl: ttl}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Key derives the cache key from the analyzed message and the declared
// urgency, which both feed the prompt.
func Key(message string, urgency feedback.Urgency) string {
	sum := sha256.Sum256([]byte(message + "|" + string(urgency)))
	return hex.EncodeToString(sum[:])
}

func (c *Client) GetAnalysis(ctx context.Context, key string) (feedback.Analysis, bool) {
	data, err := c.client.Get(ctx, "analysis:"+key).Bytes()
	if err == redis.Nil {
		return feedback.Analysis{}, false
	}
	if err != nil {
		logger.Warn("Analysis cache read failed", zap.Error(err))
		return feedback.Analysis{}, false
	}

	var analysis feedback.Analysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		logger.Warn("Analysis cache entry malformed", zap.Error(err))
		return feedback.Analysis{}, false
	}

	logger.Debug("Analysis cache hit", zap.String("key", key))
	return analysis, true
}

func (c *Client) SetAnalysis(ctx context.Context, key string, analysis feedback.Analysis) {
	data, err := json.Marshal(analysis)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, "analysis:"+key, data, c.ttl).Err(); err != nil {
		logger.Warn("Analysis cache write failed", zap.Error(err))
	}
}
