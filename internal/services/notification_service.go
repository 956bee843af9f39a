package services

import (
	"fmt"

	"github.com/containrrr/shoutrrr"
	"gorm.io/gorm"

	"github.com/Wikid82/blackfeed/backend/internal/logger"
	"github.com/Wikid82/blackfeed/backend/internal/models"
)

// NotificationService raises in-app notifications and pushes them to any
// shoutrrr destinations configured in settings. It is used when a feed
// transitions into or out of the error state.
type NotificationService struct {
	DB       *gorm.DB
	Settings *SettingsService
}

func NewNotificationService(db *gorm.DB, settings *SettingsService) *NotificationService {
	return &NotificationService{DB: db, Settings: settings}
}

// Create stores an in-app notification row.
func (s *NotificationService) Create(nType models.NotificationType, title, message string) (*models.Notification, error) {
	notification := &models.Notification{
		Type:    nType,
		Title:   title,
		Message: message,
		Read:    false,
	}
	result := s.DB.Create(notification)
	return notification, result.Error
}

// Notify stores the notification and fans it out to external destinations.
// External sends run in the background; failures are logged, never returned.
func (s *NotificationService) Notify(nType models.NotificationType, title, message string) {
	if _, err := s.Create(nType, title, message); err != nil {
		logger.Log().WithError(err).Warn("failed to store notification")
	}

	urls := s.Settings.NotificationURLs()
	if len(urls) == 0 {
		return
	}
	msg := fmt.Sprintf("%s\n\n%s", title, message)
	for _, url := range urls {
		go func(dest string) {
			if err := shoutrrr.Send(dest, msg); err != nil {
				logger.Log().WithError(err).Warn("failed to send external notification")
			}
		}(url)
	}
}

// List returns notifications, optionally unread only, newest first.
func (s *NotificationService) List(unreadOnly bool) ([]models.Notification, error) {
	var notifications []models.Notification
	query := s.DB.Order("created_at desc")
	if unreadOnly {
		query = query.Where("read = ?", false)
	}
	result := query.Find(&notifications)
	return notifications, result.Error
}

func (s *NotificationService) MarkAsRead(id string) error {
	return s.DB.Model(&models.Notification{}).Where("id = ?", id).Update("read", true).Error
}

func (s *NotificationService) MarkAllAsRead() error {
	return s.DB.Model(&models.Notification{}).Where("read = ?", false).Update("read", true).Error
}
