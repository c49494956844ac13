package services

import (
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/ywy929/assay-dashboard-backend/models"
)

// Dispatcher is the push-delivery boundary the lifecycle manager talks
// to. PushService implements it; tests substitute a recorder.
type Dispatcher interface {
	SendAlert(t models.PushToken, title, body string, data map[string]string, collapseKey string) DeliveryResult
	SendRetraction(t models.PushToken, collapseKey string, data map[string]string) DeliveryResult
}

// CollapseKey is the provider-side de-duplication key for an assay's
// ready notification. Derived only from the assay id so repeated toggles
// collapse into the same provider slot.
func CollapseKey(assayID uint) string {
	return fmt.Sprintf("assay-ready-%d", assayID)
}

// NotificationService owns the durable notification records tied to an
// assay's ready state and triggers push delivery for each transition.
type NotificationService struct {
	push Dispatcher
	hub  *RealtimeHub
}

func NewNotificationService(push Dispatcher, hub *RealtimeHub) *NotificationService {
	return &NotificationService{push: push, hub: hub}
}

// NotifyReadyTransition records a ready-state change and fans the pushes
// out. Callers invoke it only when the ready flag actually changed.
//
// becameReady: one "Assay Ready" record plus an alert per registration,
// all sharing the assay's collapse key.
//
// revert: existing records for the (customer, assay) pair are superseded
// by an "Assay Not Ready" record; every registration gets a retraction
// with the same collapse key, and the Android and fallback paths addi-
// tionally get a visible "no longer ready" alert since only APNs collapses
// the original server-side.
//
// Push failures are logged and returned in the result slice; they never
// fail the transition. Returns the number of notification records created.
func (s *NotificationService) NotifyReadyTransition(db *gorm.DB, assay *models.AssayResult, becameReady bool) (int, []DeliveryResult, error) {
	if becameReady {
		return s.notifyReady(db, assay)
	}
	return s.notifyNotReady(db, assay)
}

func (s *NotificationService) notifyReady(db *gorm.DB, assay *models.AssayResult) (int, []DeliveryResult, error) {
	record := models.Notification{
		UserID:  assay.Customer,
		AssayID: assay.ID,
		Title:   "Assay Ready",
		Message: fmt.Sprintf("Your assay %s is ready for pickup", assay.ItemCode),
		Read:    false,
		Created: time.Now(),
	}
	if err := db.Create(&record).Error; err != nil {
		return 0, nil, fmt.Errorf("creating notification: %w", err)
	}
	s.broadcast(assay.Customer, EventNotificationCreated, record)

	results := s.fanOut(db, assay, func(t models.PushToken) DeliveryResult {
		return s.push.SendAlert(t, record.Title, record.Message, assayData(assay), CollapseKey(assay.ID))
	})
	return 1, results, nil
}

func (s *NotificationService) notifyNotReady(db *gorm.DB, assay *models.AssayResult) (int, []DeliveryResult, error) {
	if err := db.Where("user_id = ? AND assay_id = ?", assay.Customer, assay.ID).
		Delete(&models.Notification{}).Error; err != nil {
		return 0, nil, fmt.Errorf("superseding notifications: %w", err)
	}

	record := models.Notification{
		UserID:  assay.Customer,
		AssayID: assay.ID,
		Title:   "Assay Not Ready",
		Message: fmt.Sprintf("Your assay %s is no longer ready", assay.ItemCode),
		Read:    false,
		Created: time.Now(),
	}
	if err := db.Create(&record).Error; err != nil {
		return 0, nil, fmt.Errorf("creating notification: %w", err)
	}
	s.broadcast(assay.Customer, EventNotificationSuperseded, record)

	key := CollapseKey(assay.ID)
	results := s.fanOut(db, assay, func(t models.PushToken) DeliveryResult {
		res := s.push.SendRetraction(t, key, assayData(assay))
		// APNs removes the original alert server-side; the other channels
		// need a visible follow-up so the customer learns of the revert.
		if SelectChannel(t) != ChannelNativeIOS {
			s.push.SendAlert(t, record.Title, record.Message, assayData(assay), "")
		}
		return res
	})
	return 1, results, nil
}

func (s *NotificationService) fanOut(db *gorm.DB, assay *models.AssayResult, send func(models.PushToken) DeliveryResult) []DeliveryResult {
	var tokens []models.PushToken
	if err := db.Where("user_id = ?", assay.Customer).Find(&tokens).Error; err != nil {
		log.Printf("[NOTIFY] loading push tokens for user %d: %v", assay.Customer, err)
		return nil
	}

	results := make([]DeliveryResult, 0, len(tokens))
	for _, t := range tokens {
		results = append(results, send(t))
	}
	return results
}

func (s *NotificationService) broadcast(userID uint, kind string, record models.Notification) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(userID, newNotificationEvent(kind, record))
}

func assayData(assay *models.AssayResult) map[string]string {
	return map[string]string{
		"assay_id": fmt.Sprintf("%d", assay.ID),
		"itemcode": assay.ItemCode,
		"formcode": fmt.Sprintf("%d", assay.FormCode),
	}
}
