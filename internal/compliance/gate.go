// Package compliance validates that a tenant may send on a channel before
// any delivery is attempted. Rejections are terminal: they route straight
// to the dead-letter table and are never retried.
package compliance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/classpulse/notification-engine/internal/model"
	"github.com/classpulse/notification-engine/internal/repository"
	"github.com/classpulse/notification-engine/pkg/logger"
	"github.com/classpulse/notification-engine/pkg/redis"
)

// DefaultCacheTTL bounds how stale a cached settings row may be. Settings
// change rarely; the batch loop reads them once per queue entry.
const DefaultCacheTTL = 60 * time.Second

// RejectionError is a terminal compliance failure with a human-readable
// reason. Anything else returned by the gate is a lookup failure and must
// not dead-letter the entry.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return e.Reason
}

// IsRejection reports whether err is a compliance rejection rather than an
// infrastructure failure.
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}

type SettingsSource interface {
	GetEffective(ctx context.Context, tenantID, schoolID string) (*model.NotificationSettings, error)
}

type Gate struct {
	source SettingsSource
	cache  redis.RedisAdapter
	ttl    time.Duration
}

// NewGate builds a gate over the settings store. cache may be nil, in which
// case every check hits the store.
func NewGate(source SettingsSource, cache redis.RedisAdapter, ttl time.Duration) *Gate {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Gate{
		source: source,
		cache:  cache,
		ttl:    ttl,
	}
}

// Check validates the channel against the effective settings for
// (tenant, school). School-specific settings win over tenant-wide defaults.
// A *RejectionError means the tenant may not send on this channel.
func (g *Gate) Check(ctx context.Context, tenantID, schoolID string, channel model.Channel) error {
	settings, err := g.load(ctx, tenantID, schoolID)
	if err != nil {
		return err
	}
	return Validate(channel, settings)
}

// Validate is the pure channel eligibility rule. settings is nil when the
// tenant has no settings row at all.
func Validate(channel model.Channel, settings *model.NotificationSettings) error {
	switch channel {
	case model.ChannelEmail:
		if settings == nil {
			return &RejectionError{Reason: "email channel requires verified sending domain, tenant has no notification settings"}
		}
		if !settings.EmailVerified() {
			return &RejectionError{Reason: fmt.Sprintf(
				"email channel requires SPF, DKIM and DMARC to pass (spf=%s dkim=%s dmarc=%s)",
				settings.SPFStatus, settings.DKIMStatus, settings.DMARCStatus,
			)}
		}
		return nil
	case model.ChannelSMS:
		if settings == nil || !settings.SMSOptIn {
			return &RejectionError{Reason: "sms channel requires explicit tenant opt-in"}
		}
		return nil
	default:
		// push and unrecognized channels are not gated
		return nil
	}
}

// cachedSettings distinguishes "tenant has no settings" from a cache miss,
// so absent rows do not hammer the store every tick.
type cachedSettings struct {
	Found    bool                        `json:"found"`
	Settings *model.NotificationSettings `json:"settings,omitempty"`
}

func (g *Gate) load(ctx context.Context, tenantID, schoolID string) (*model.NotificationSettings, error) {
	key := cacheKey(tenantID, schoolID)

	if g.cache != nil {
		if raw, err := g.cache.Get(key); err == nil {
			var cached cachedSettings
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached.Settings, nil
			}
		} else if !errors.Is(err, redis.NilError) {
			logger.Warn("settings cache read failed", "tenant_id", tenantID, "error", err)
		}
	}

	settings, err := g.source.GetEffective(ctx, tenantID, schoolID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	if g.cache != nil {
		raw, _ := json.Marshal(cachedSettings{Found: settings != nil, Settings: settings})
		if err := g.cache.Set(key, raw, g.ttl); err != nil {
			logger.Warn("settings cache write failed", "tenant_id", tenantID, "error", err)
		}
	}

	return settings, nil
}

func cacheKey(tenantID, schoolID string) string {
	return "notification-settings:" + tenantID + ":" + schoolID
}
