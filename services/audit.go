package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"studyplan_go/config"
	"studyplan_go/database"
	"studyplan_go/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Scope identifies the authenticated actor on whose behalf a core operation
// runs. It is resolved once by the auth middleware and passed explicitly;
// the core never inspects tokens itself.
type Scope struct {
	UserID   uint
	TenantID uint
	Role     string
}

// Audit event actions emitted by the plan engines
const (
	ActionVolumeAdjusted = "plan.volume_adjusted"
	ActionRedistributed  = "plan.redistributed"
	ActionCarryover      = "plan.carryover"
	ActionContainerMoved = "plan.moved"
	ActionReordered      = "plan.reordered"
)

const auditQueueKey = "audit:queue"

// SystemScope is the actor used by scheduled jobs and the carryover CLI,
// where no authenticated user exists. TenantID zero means cross-tenant.
func SystemScope() Scope {
	return Scope{UserID: 0, TenantID: 0, Role: "system"}
}

// AuditService appends typed event records. Events go to the Redis queue
// first (flushed to the database by the batch scheduler) and fall back to a
// direct database insert when Redis is unavailable.
type AuditService struct {
	db       *gorm.DB
	redis    *redis.Client
	useRedis bool
}

// NewAuditService creates an audit sink bound to the global connections.
func NewAuditService() *AuditService {
	return &AuditService{
		db:       database.DB,
		redis:    database.GetRedisClient(),
		useRedis: config.AppConfig.UseRedisAuditQueue,
	}
}

// Record appends one audit event. Failures are logged, never propagated; an
// audit miss must not fail the user's mutation.
func (as *AuditService) Record(scope Scope, action, resource string, resourceID uint, details map[string]interface{}) {
	var detailsJSON models.JSON
	if details != nil {
		if detailsBytes, err := json.Marshal(details); err == nil {
			detailsJSON = detailsBytes
		}
	}

	event := models.AuditLog{
		UserID:     scope.UserID,
		TenantID:   scope.TenantID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    detailsJSON,
	}

	if as.useRedis && as.redis != nil {
		if err := as.queueEvent(event); err == nil {
			return
		} else {
			logrus.WithError(err).Warn("Failed to queue audit event, saving directly to database")
		}
	}

	if as.db == nil {
		logrus.Error("database not available; dropping audit event")
		return
	}
	if err := as.db.Create(&event).Error; err != nil {
		logrus.WithError(err).WithField("action", action).Error("Failed to save audit event")
	}
}

// queueEvent stores the event in Redis with a 24-hour TTL and adds it to the
// sorted queue the flush job drains.
func (as *AuditService) queueEvent(event models.AuditLog) error {
	ctx := context.Background()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %v", err)
	}

	key := fmt.Sprintf("audit:%d:%s:%s", event.UserID, event.Action, uuid.NewString())

	if err := as.redis.Set(ctx, key, data, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to cache audit event: %v", err)
	}

	if err := as.redis.ZAdd(ctx, auditQueueKey, &redis.Z{
		Score:  float64(time.Now().Unix()),
		Member: key,
	}).Err(); err != nil {
		logrus.WithError(err).Error("Failed to add audit event to processing queue")
	}

	return nil
}
