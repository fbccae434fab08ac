package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"studyplan_go/config"
	"studyplan_go/database"
	"studyplan_go/models"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// queuedNotification is the minimal payload stored in the Redis queue.
// One entry may fan out to many users with the same payload.
type queuedNotification struct {
	UserIDs   []uint    `json:"user_ids"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

const redisListKey = "notifications:queue"

// Notification types, matching the enum on the notifications table. Inserts
// with any other value are rejected by MySQL in strict mode.
const (
	TypeInfo    = "info"
	TypeWarning = "warning"
	TypeError   = "error"
	TypeSuccess = "success"
)

// Service creates in-app notifications, queueing through Redis when
// available and falling back to a direct database insert otherwise.
type Service struct {
	db       *gorm.DB
	redis    *redis.Client
	useRedis bool
	wsHub    WSHub
}

// WSHub interface for WebSocket broadcasting
type WSHub interface {
	BroadcastToUser(userID uint, message interface{})
}

// defaultHub allows services created in different parts of the app (e.g., the
// batch scheduler) to broadcast over the same WebSocket hub without manually
// wiring each instance.
var defaultHub WSHub

// SetDefaultWSHub sets the package-level default hub used by new instances.
func SetDefaultWSHub(h WSHub) {
	defaultHub = h
}

func NewService() *Service {
	return &Service{
		db:       database.DB,
		redis:    database.GetRedisClient(),
		useRedis: config.AppConfig != nil && config.AppConfig.UseRedisAuditQueue && database.GetRedisClient() != nil,
		wsHub:    defaultHub,
	}
}

// SetWebSocketHub sets the hub for real-time delivery
func (s *Service) SetWebSocketHub(hub WSHub) {
	s.wsHub = hub
}

// Queued builds a payload for EnqueueOrCreate. Types outside the table enum
// fall back to info so the insert cannot be rejected by the column.
func Queued(title, message, typ string) queuedNotification {
	switch typ {
	case TypeInfo, TypeWarning, TypeError, TypeSuccess:
	default:
		typ = TypeInfo
	}
	return queuedNotification{Title: title, Message: message, Type: typ}
}

// EnqueueOrCreate stores notifications via the Redis queue if enabled, else
// inserts directly.
func (s *Service) EnqueueOrCreate(userIDs []uint, n queuedNotification) error {
	if len(userIDs) == 0 {
		return errors.New("no user ids")
	}
	n.UserIDs = userIDs
	n.CreatedAt = time.Now().UTC()

	if s.useRedis {
		b, err := json.Marshal(n)
		if err != nil {
			return err
		}
		if err = s.redis.RPush(context.Background(), redisListKey, b).Err(); err == nil {
			return nil
		}
		log.Printf("[notif] Redis queue failed, falling back to direct insert: %v", err)
	}

	return s.createDirect(userIDs, n)
}

// createDirect writes to the database (used by the worker or as fallback).
func (s *Service) createDirect(userIDs []uint, n queuedNotification) error {
	if len(userIDs) == 0 {
		return nil
	}
	notifs := make([]models.Notification, 0, len(userIDs))
	for _, uid := range userIDs {
		notifs = append(notifs, models.Notification{
			UserID:  uid,
			Title:   n.Title,
			Message: n.Message,
			Type:    n.Type,
			Read:    false,
		})
	}

	if err := s.db.Create(&notifs).Error; err != nil {
		return err
	}

	if s.wsHub != nil {
		for _, notif := range notifs {
			s.wsHub.BroadcastToUser(notif.UserID, map[string]interface{}{
				"type": "notification",
				"data": notif,
			})
		}
	}

	return nil
}

// StartWorker starts a background worker polling the Redis queue and flushing
// batches to the database.
func (s *Service) StartWorker(stop <-chan struct{}) {
	if !s.useRedis {
		log.Println("[notif] Redis notifications disabled; worker not started")
		return
	}
	go func() {
		log.Println("[notif] Redis notification worker started")
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		ctx := context.Background()
		batchSize := 200
		for {
			select {
			case <-stop:
				log.Println("[notif] Worker stopping")
				return
			case <-ticker.C:
				s.flushBatch(ctx, batchSize)
			}
		}
	}()
}

// flushBatch drains up to five sub-batches from the queue per tick.
func (s *Service) flushBatch(ctx context.Context, batchSize int) {
	if s.redis == nil {
		return
	}
	for i := 0; i < 5; i++ {
		vals, err := s.redis.LRange(ctx, redisListKey, 0, int64(batchSize-1)).Result()
		if err != nil || len(vals) == 0 {
			return
		}
		// Trim immediately to avoid duplicates (best-effort)
		if err = s.redis.LTrim(ctx, redisListKey, int64(len(vals)), -1).Err(); err != nil {
			log.Printf("[notif] LTrim failed: %v", err)
		}
		for _, raw := range vals {
			var q queuedNotification
			if err := json.Unmarshal([]byte(raw), &q); err != nil {
				continue
			}
			if err := s.createDirect(q.UserIDs, q); err != nil {
				log.Printf("[notif] DB insert failed (retry later?): %v", err)
			}
		}
		if len(vals) < batchSize {
			return
		}
	}
}
