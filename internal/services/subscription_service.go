package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/promdate-backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionService keeps Profile.IsPrivileged in step with RevenueCat.
type SubscriptionService struct {
	db *gorm.DB
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// HandleWebhookEvent applies one RevenueCat event. Events for unknown or
// non-uuid app users are ignored so RevenueCat stops retrying them.
func (s *SubscriptionService) HandleWebhookEvent(ctx context.Context, event *dto.RevenueCatEvent) error {
	userID, ok := webhookUserID(event)
	if !ok {
		slog.Warn("revenuecat event without usable app_user_id", "action", event.Type, "event_id", event.ID)
		return nil
	}

	switch event.Type {
	case "INITIAL_PURCHASE", "RENEWAL", "UNCANCELLATION", "PRODUCT_CHANGE":
		return s.activate(ctx, userID, event)
	case "CANCELLATION":
		return s.setStatus(ctx, userID, "cancelled", true)
	case "EXPIRATION":
		return s.setStatus(ctx, userID, "expired", false)
	default:
		return nil
	}
}

func (s *SubscriptionService) activate(ctx context.Context, userID uuid.UUID, event *dto.RevenueCatEvent) error {
	sub := models.Subscription{
		UserID:             userID,
		ProductID:          event.ProductID,
		Status:             "active",
		CurrentPeriodStart: msToTime(event.PurchasedAtMs),
		CurrentPeriodEnd:   msToTime(event.ExpirationAtMs),
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"product_id", "status", "current_period_start", "current_period_end", "updated_at"}),
		}).Create(&sub).Error; err != nil {
			return fmt.Errorf("upsert subscription: %w", err)
		}
		return setPrivileged(tx, userID, true)
	})
}

// setStatus records a status change. Cancelled subscriptions stay privileged
// until RevenueCat sends the expiration.
func (s *SubscriptionService) setStatus(ctx context.Context, userID uuid.UUID, status string, privileged bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Subscription{}).
			Where("user_id = ?", userID).
			Update("status", status).Error; err != nil {
			return fmt.Errorf("update subscription: %w", err)
		}
		if privileged {
			return nil
		}
		return setPrivileged(tx, userID, false)
	})
}

func setPrivileged(tx *gorm.DB, userID uuid.UUID, privileged bool) error {
	res := tx.Model(&models.Profile{}).Where("user_id = ?", userID).Update("is_privileged", privileged)
	if res.Error != nil {
		return fmt.Errorf("update privilege: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		slog.Warn("subscription for user without profile", "user_id", userID.String())
	}
	return nil
}

func webhookUserID(event *dto.RevenueCatEvent) (uuid.UUID, bool) {
	for _, raw := range []string{event.AppUserID, event.OriginalAppUserID} {
		if id, err := uuid.Parse(raw); err == nil {
			return id, true
		}
	}
	return uuid.Nil, false
}

func msToTime(ms int64) time.Time {
	return time.Unix(ms/1000, (ms%1000)*int64(time.Millisecond)).UTC()
}
