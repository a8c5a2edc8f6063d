package cron

import (
	"context"
	"time"

	"github.com/adilet-s/spacebook/internal/repository"
	"github.com/adilet-s/spacebook/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// StartCleanupJobs runs the periodic maintenance: purging expired
// notifications and pruning long-terminal friend requests.
func StartCleanupJobs(notificationService *services.NotificationService, friendRepo *repository.FriendRepository) {
	c := cron.New()

	// Expired notifications, daily at midnight
	c.AddFunc("0 0 * * *", func() {
		err := notificationService.DeleteExpiredNotifications(context.Background())
		if err != nil {
			logrus.WithError(err).Error("DeleteExpiredNotifications failed")
		}
	})

	// Terminal friend requests older than 30 days, daily
	c.AddFunc("30 0 * * *", func() {
		cutoff := time.Now().Add(-30 * 24 * time.Hour)
		deleted, err := friendRepo.DeleteStaleRequests(context.Background(), cutoff)
		if err != nil {
			logrus.WithError(err).Error("DeleteStaleRequests failed")
			return
		}
		if deleted > 0 {
			logrus.Infof("Pruned %d stale friend requests", deleted)
		}
	})

	c.Start()
}
