package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"studyplan_go/config"
	"studyplan_go/database"
	"studyplan_go/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// AuditArchiveService flushes queued audit events to the database and
// archives old audit rows to S3.
type AuditArchiveService struct {
	redisClient *redis.Client
	awsConfig   aws.Config
}

// ArchivedEvent is the exported representation stored inside archives
type ArchivedEvent struct {
	ID         uint           `json:"id"`
	UserID     uint           `json:"user_id"`
	TenantID   uint           `json:"tenant_id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID uint           `json:"resource_id"`
	Details    map[string]any `json:"details"`
	CreatedAt  time.Time      `json:"created_at"`
	Username   string         `json:"username,omitempty"`
	UserRole   string         `json:"user_role,omitempty"`
}

// NewAuditArchiveService creates a new service instance
func NewAuditArchiveService() *AuditArchiveService {
	cfg, err := awscfg.LoadDefaultConfig(context.Background(), awscfg.WithRegion(config.AppConfig.AWSRegion))
	if err != nil {
		logrus.WithError(err).Warn("Failed to load AWS config; S3 operations will fail until configured")
	}

	return &AuditArchiveService{
		redisClient: database.GetRedisClient(),
		awsConfig:   cfg,
	}
}

// FlushQueuedEvents moves audit events from the Redis queue to the database.
func (aas *AuditArchiveService) FlushQueuedEvents() error {
	if aas.redisClient == nil {
		return fmt.Errorf("redis client not available")
	}

	ctx := context.Background()

	queued, err := aas.redisClient.ZRangeByScore(ctx, auditQueueKey, &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", time.Now().Unix()),
	}).Result()
	if err != nil {
		return fmt.Errorf("failed to read audit queue: %v", err)
	}
	if len(queued) == 0 {
		return nil
	}

	logrus.Infof("Flushing %d queued audit events", len(queued))

	var processedCount int
	var errorCount int

	for _, eventKey := range queued {
		data, err := aas.redisClient.Get(ctx, eventKey).Result()
		if err != nil {
			if err != redis.Nil {
				logrus.WithError(err).Errorf("Failed to get audit event for key: %s", eventKey)
				errorCount++
			}
			// Expired entries just get dropped from the queue.
			aas.redisClient.ZRem(ctx, auditQueueKey, eventKey)
			continue
		}

		var event models.AuditLog
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			logrus.WithError(err).Errorf("Failed to unmarshal audit event for key: %s", eventKey)
			errorCount++
			continue
		}

		if err := database.DB.Create(&event).Error; err != nil {
			logrus.WithError(err).Error("Failed to save audit event to database")
			errorCount++
			continue
		}

		pipeline := aas.redisClient.Pipeline()
		pipeline.Del(ctx, eventKey)
		pipeline.ZRem(ctx, auditQueueKey, eventKey)
		if _, err := pipeline.Exec(ctx); err != nil {
			logrus.WithError(err).Errorf("Failed to remove audit event from cache: %s", eventKey)
		}

		processedCount++
	}

	logrus.Infof("Flushed %d audit events to database, %d errors", processedCount, errorCount)
	return nil
}

// ArchiveOldEvents archives audit rows older than daysOld to S3 and removes
// them from the database.
func (aas *AuditArchiveService) ArchiveOldEvents(daysOld int) error {
	if daysOld < 7 {
		return fmt.Errorf("minimum archive age is 7 days for safety")
	}

	cutoffDate := time.Now().AddDate(0, 0, -daysOld)

	batchSize := 1000
	var allEvents []ArchivedEvent

	for offset := 0; ; offset += batchSize {
		var rows []models.AuditLog
		err := database.DB.
			Preload("User").
			Where("created_at < ?", cutoffDate).
			Limit(batchSize).
			Offset(offset).
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to fetch audit events for archiving: %v", err)
		}
		if len(rows) == 0 {
			break
		}

		for _, row := range rows {
			archived := ArchivedEvent{
				ID:         row.ID,
				UserID:     row.UserID,
				TenantID:   row.TenantID,
				Action:     row.Action,
				Resource:   row.Resource,
				ResourceID: row.ResourceID,
				CreatedAt:  row.CreatedAt,
			}

			if len(row.Details) > 0 {
				var details map[string]any
				if err := json.Unmarshal(row.Details, &details); err == nil {
					archived.Details = details
				}
			}

			if row.User.ID > 0 {
				archived.Username = row.User.Username
				archived.UserRole = row.User.Role
			}

			allEvents = append(allEvents, archived)
		}
	}

	if len(allEvents) == 0 {
		logrus.Info("No audit events to archive")
		return nil
	}
	logrus.Infof("Archiving %d audit events older than %s", len(allEvents), cutoffDate.Format("2006-01-02"))

	archiveFileName := fmt.Sprintf("audit_logs_%s.zip", cutoffDate.Format("2006-01-02"))
	zipBuffer, err := aas.createZipArchive(allEvents, archiveFileName)
	if err != nil {
		return fmt.Errorf("failed to create ZIP archive: %v", err)
	}

	s3Key := fmt.Sprintf("audit/archived/%d/%02d/%s",
		cutoffDate.Year(),
		cutoffDate.Month(),
		archiveFileName)

	if err := aas.uploadToS3(s3Key, zipBuffer); err != nil {
		return fmt.Errorf("failed to upload archive to S3: %v", err)
	}

	logrus.Infof("Successfully uploaded archive to S3: %s", s3Key)

	result := database.DB.Where("created_at < ?", cutoffDate).Delete(&models.AuditLog{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete archived audit events from database: %v", result.Error)
	}
	logrus.Infof("Deleted %d archived audit events from database", result.RowsAffected)

	archiveMetadata := models.AuditArchive{
		FileName:    archiveFileName,
		S3Key:       s3Key,
		StartDate:   allEvents[0].CreatedAt,
		EndDate:     cutoffDate,
		RecordCount: len(allEvents),
		FileSize:    int64(zipBuffer.Len()),
		Status:      "completed",
	}
	if err := database.DB.Create(&archiveMetadata).Error; err != nil {
		logrus.WithError(err).Error("Failed to save archive metadata")
	}

	return nil
}

// createZipArchive creates a ZIP file containing the events as JSON and CSV
func (aas *AuditArchiveService) createZipArchive(events []ArchivedEvent, fileName string) (*bytes.Buffer, error) {
	buf := new(bytes.Buffer)
	zipWriter := zip.NewWriter(buf)

	jsonFile, err := zipWriter.Create("audit_logs.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create logs file in ZIP: %v", err)
	}

	encoder := json.NewEncoder(jsonFile)
	encoder.SetIndent("", "  ")
	payload := map[string]any{
		"export_date":    time.Now().UTC(),
		"record_count":   len(events),
		"format_version": "1.0",
		"events":         events,
	}
	if err := encoder.Encode(payload); err != nil {
		return nil, fmt.Errorf("failed to encode events to JSON: %v", err)
	}

	csvFile, err := zipWriter.Create("audit_logs.csv")
	if err != nil {
		return nil, fmt.Errorf("failed to create CSV file in ZIP: %v", err)
	}

	csvFile.Write([]byte("ID,User ID,Username,Role,Tenant ID,Action,Resource,Resource ID,Created At,Details\n"))
	for _, event := range events {
		details := ""
		if event.Details != nil {
			if detailsBytes, err := json.Marshal(event.Details); err == nil {
				details = strings.ReplaceAll(string(detailsBytes), "\"", "\"\"")
			}
		}
		line := fmt.Sprintf("%d,%d,%s,%s,%d,%s,%s,%d,%s,\"%s\"\n",
			event.ID,
			event.UserID,
			event.Username,
			event.UserRole,
			event.TenantID,
			event.Action,
			event.Resource,
			event.ResourceID,
			event.CreatedAt.Format("2006-01-02 15:04:05"),
			details,
		)
		csvFile.Write([]byte(line))
	}

	if err := zipWriter.Close(); err != nil {
		return nil, fmt.Errorf("failed to close ZIP writer: %v", err)
	}

	return buf, nil
}

// uploadToS3 uploads data to the configured archive bucket
func (aas *AuditArchiveService) uploadToS3(key string, data *bytes.Buffer) error {
	if aas.awsConfig.Region == "" {
		return fmt.Errorf("AWS not configured")
	}

	s3Client := s3.NewFromConfig(aas.awsConfig)
	bucketName := config.AppConfig.S3BucketName

	_, err := s3Client.PutObject(context.Background(), &s3.PutObjectInput{
		Bucket:      &bucketName,
		Key:         &key,
		Body:        bytes.NewReader(data.Bytes()),
		ContentType: aws.String("application/zip"),
	})

	return err
}

// ListArchives retrieves archive metadata records, newest first.
func (aas *AuditArchiveService) ListArchives() ([]models.AuditArchive, error) {
	var archives []models.AuditArchive
	err := database.DB.Order("created_at DESC").Find(&archives).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve archives: %v", err)
	}
	return archives, nil
}
