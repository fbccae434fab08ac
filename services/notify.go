package services

import (
	"studyplan_go/database"
	"studyplan_go/models"
	"studyplan_go/services/notifications"

	"github.com/sirupsen/logrus"
)

// notifyTenantStaff fans an in-app notification out to every active staff
// account (owner, admin, teacher) of a tenant. Delivery failures are logged
// and never fail the triggering operation.
func notifyTenantStaff(tenantID uint, title, message, typ string) {
	var userIDs []uint
	err := database.DB.Model(&models.User{}).
		Where("tenant_id = ? AND role IN ? AND status = ?", tenantID, []string{"owner", "admin", "teacher"}, "active").
		Pluck("id", &userIDs).Error
	if err != nil {
		logrus.WithError(err).WithField("tenant_id", tenantID).Warn("Staff lookup for notification failed")
		return
	}
	if len(userIDs) == 0 {
		return
	}

	if err := notifications.NewService().EnqueueOrCreate(userIDs, notifications.Queued(title, message, typ)); err != nil {
		logrus.WithError(err).WithField("tenant_id", tenantID).Warn("Staff notification failed")
	}
}
