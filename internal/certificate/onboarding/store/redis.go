package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"fatoora/internal/certificate/onboarding"
	id "fatoora/pkg/domain"
	"fatoora/pkg/platform/sentinel"
)

const sessionKeyPrefix = "onboarding:session:"

// Redis persists onboarding sessions with a TTL so an abandoned production
// onboarding expires without cleanup jobs. One session per tenant; a new
// Begin overwrites the previous one.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func sessionKey(tenantID id.TenantID) string {
	return sessionKeyPrefix + tenantID.String()
}

func (s *Redis) Put(ctx context.Context, session *onboarding.Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal onboarding session: %w", err)
	}
	return s.client.Set(ctx, sessionKey(session.TenantID), payload, ttl).Err()
}

func (s *Redis) Get(ctx context.Context, tenantID id.TenantID) (*onboarding.Session, error) {
	payload, err := s.client.Get(ctx, sessionKey(tenantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load onboarding session: %w", err)
	}
	var session onboarding.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("unmarshal onboarding session: %w", err)
	}
	return &session, nil
}

func (s *Redis) Delete(ctx context.Context, tenantID id.TenantID) error {
	return s.client.Del(ctx, sessionKey(tenantID)).Err()
}
