package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/interview-iq/backend/internal/apperr"
	"github.com/interview-iq/backend/pkg/logger"
)

// executionTTL bounds how long finished execution records stay
// pollable.
const executionTTL = 24 * time.Hour

// RedisExecutionStore persists executions in redis so status polling
// survives restarts and works across replicas.
type RedisExecutionStore struct {
	client *redis.Client
}

func NewRedisExecutionStore(host string, port int, password string, db int) (*RedisExecutionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Redis execution store initialized",
		zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &RedisExecutionStore{client: client}, nil
}

func (s *RedisExecutionStore) Close() error {
	return s.client.Close()
}

func executionKey(executionID string) string {
	return fmt.Sprintf("execution:%s", executionID)
}

func (s *RedisExecutionStore) Put(ctx context.Context, exec *Execution) error {
	data, err := json.Marshal(exec)
	if err != nil {
		return fmt.Errorf("failed to marshal execution: %w", err)
	}

	if err := s.client.Set(ctx, executionKey(exec.ExecutionID), data, executionTTL).Err(); err != nil {
		return apperr.Backend("failed to store execution", err)
	}

	logger.Debug("Execution stored",
		zap.String("execution_id", exec.ExecutionID),
		zap.String("status", string(exec.Status)))
	return nil
}

func (s *RedisExecutionStore) Get(ctx context.Context, executionID string) (*Execution, error) {
	data, err := s.client.Get(ctx, executionKey(executionID)).Bytes()
	if err == redis.Nil {
		return nil, apperr.NotFound("execution %s not found", executionID)
	}
	if err != nil {
		return nil, apperr.Backend("failed to read execution", err)
	}

	var exec Execution
	if err := json.Unmarshal(data, &exec); err != nil {
		return nil, apperr.Backend("failed to unmarshal execution", err)
	}
	return &exec, nil
}
