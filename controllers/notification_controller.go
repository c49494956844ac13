package controllers

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ywy929/assay-dashboard-backend/config"
	"github.com/ywy929/assay-dashboard-backend/models"
)

type pushTokenReq struct {
	Token       string  `json:"token" binding:"required"`
	DeviceToken *string `json:"device_token"`
	DeviceType  string  `json:"device_type" binding:"required"`
}

// POST /notifications/push-token
//
// Registers or updates a push token. Re-registration with the same
// routing token updates the row in place; the unique index prevents
// duplicates under concurrent registration.
func RegisterPushToken(c *gin.Context) {
	uid := c.GetUint("userID")

	var req pushTokenReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	log.Printf("[TOKEN] registering push token for user=%d device_type=%s", uid, req.DeviceType)

	now := time.Now()
	var existing models.PushToken
	err := config.DB.Where("token = ?", req.Token).First(&existing).Error
	if err == nil {
		existing.UserID = uid
		existing.DeviceToken = req.DeviceToken
		existing.DeviceType = req.DeviceType
		existing.Updated = now
		err = config.DB.Save(&existing).Error
	} else {
		token := models.PushToken{
			UserID:      uid,
			Token:       req.Token,
			DeviceToken: req.DeviceToken,
			DeviceType:  req.DeviceType,
			Created:     now,
			Updated:     now,
		}
		if err = config.DB.Create(&token).Error; err != nil {
			// Concurrent registration of the same token: fall back to an
			// update of the row the other request inserted.
			if config.DB.Where("token = ?", req.Token).First(&existing).Error == nil {
				existing.UserID = uid
				existing.DeviceToken = req.DeviceToken
				existing.DeviceType = req.DeviceType
				existing.Updated = now
				err = config.DB.Save(&existing).Error
			}
		}
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "push token registered successfully"})
}

// DELETE /notifications/push-token/:token
func UnregisterPushToken(c *gin.Context) {
	uid := c.GetUint("userID")
	token := c.Param("token")

	config.DB.Where("token = ? AND user_id = ?", token, uid).Delete(&models.PushToken{})
	c.JSON(http.StatusOK, gin.H{"message": "push token unregistered successfully"})
}

type notificationResponse struct {
	ID       uint      `json:"id"`
	Title    string    `json:"title"`
	Message  string    `json:"message"`
	Read     bool      `json:"read"`
	Created  time.Time `json:"created"`
	AssayID  uint      `json:"assay_id"`
	ItemCode string    `json:"itemcode,omitempty"`
	FormCode int       `json:"formcode,omitempty"`
}

// GET /notifications
func GetNotifications(c *gin.Context) {
	uid := c.GetUint("userID")
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	q := config.DB.Where("user_id = ?", uid)
	if c.Query("unread_only") == "true" {
		q = q.Where("read = ?", false)
	}

	var notifications []models.Notification
	if err := q.Order("created DESC").Limit(limit).Offset(offset).Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// Enrich with assay details.
	out := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp := notificationResponse{
			ID:      n.ID,
			Title:   n.Title,
			Message: n.Message,
			Read:    n.Read,
			Created: n.Created,
			AssayID: n.AssayID,
		}
		var assay models.AssayResult
		if err := config.DB.First(&assay, n.AssayID).Error; err == nil {
			resp.ItemCode = assay.ItemCode
			resp.FormCode = assay.FormCode
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, out)
}

// GET /notifications/stats
func GetNotificationStats(c *gin.Context) {
	uid := c.GetUint("userID")

	var total, unread int64
	config.DB.Model(&models.Notification{}).Where("user_id = ?", uid).Count(&total)
	config.DB.Model(&models.Notification{}).Where("user_id = ? AND read = ?", uid, false).Count(&unread)

	c.JSON(http.StatusOK, gin.H{"total": total, "unread": unread})
}

// PUT /notifications/:id/read
func MarkNotificationRead(c *gin.Context) {
	uid := c.GetUint("userID")
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var notification models.Notification
	if err := config.DB.Where("id = ? AND user_id = ?", id, uid).First(&notification).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}

	notification.Read = true
	if err := config.DB.Save(&notification).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

// PUT /notifications/read-all
func MarkAllNotificationsRead(c *gin.Context) {
	uid := c.GetUint("userID")

	if err := config.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", uid, false).
		Update("read", true).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked as read"})
}

// DELETE /notifications/:id
func DeleteNotification(c *gin.Context) {
	uid := c.GetUint("userID")
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	result := config.DB.Where("id = ? AND user_id = ?", id, uid).Delete(&models.Notification{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": result.Error.Error()})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification deleted"})
}
