package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ywy929/assay-dashboard-backend/config"
	"github.com/ywy929/assay-dashboard-backend/middlewares"
	"github.com/ywy929/assay-dashboard-backend/models"
	"github.com/ywy929/assay-dashboard-backend/services"
)

type AssayController struct {
	Notifier *services.NotificationService
}

func NewAssayController(notifier *services.NotificationService) *AssayController {
	return &AssayController{Notifier: notifier}
}

// customerVisible narrows a query to what customer accounts may see:
// their own rows, with a result, not hidden, not redo, not soft-deleted.
func customerVisible(q *gorm.DB, userID uint) *gorm.DB {
	return q.Where("customer = ? AND final_result <> ? AND final_result <> ? AND ready = ? AND deleted = ?",
		userID, 0, models.FinalResultRedo, true, false)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return fallback
	}
	return v
}

// GET /assay-results/my-results
func (ac *AssayController) MyResults(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	limit := intQuery(c, "limit", 20)
	offset := intQuery(c, "offset", 0)

	q := config.DB.Model(&models.AssayResult{})
	if user.Role == "customer" {
		q = customerVisible(q, user.ID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var results []models.AssayResult
	if err := q.Order("created DESC").Limit(limit).Offset(offset).Find(&results).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    results,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"has_more": int64(offset+limit) < total,
	})
}

// GET /assay-results/my-results/:id
func (ac *AssayController) MyResultByID(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	q := config.DB.Where("id = ?", id)
	if user.Role == "customer" {
		q = customerVisible(q, user.ID)
	}

	var result models.AssayResult
	if err := q.First(&result).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "assay result not found or you don't have permission to view it"})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /assay-results/search
func (ac *AssayController) Search(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	limit := intQuery(c, "limit", 50)
	offset := intQuery(c, "offset", 0)

	q := config.DB.Model(&models.AssayResult{})
	if user.Role == "customer" {
		q = customerVisible(q, user.ID)
	}

	if itemcode := strings.TrimSpace(c.Query("itemcode")); itemcode != "" {
		q = q.Where("item_code ILIKE ?", "%"+itemcode+"%")
	}

	isStaff := user.Role == "admin" || user.Role == "boss" || user.Role == "worker"
	if customerName := strings.TrimSpace(c.Query("customer_name")); customerName != "" && isStaff {
		q = q.Joins(`JOIN "user" ON assayresult.customer = "user".id`).
			Where(`"user".name ILIKE ?`, "%"+customerName+"%")
	}

	if dateFrom := strings.TrimSpace(c.Query("date_from")); dateFrom != "" {
		from, err := time.Parse("2006-01-02", dateFrom)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_from format, use YYYY-MM-DD"})
			return
		}
		q = q.Where("created >= ?", from)
	}
	if dateTo := strings.TrimSpace(c.Query("date_to")); dateTo != "" {
		to, err := time.Parse("2006-01-02", dateTo)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date_to format, use YYYY-MM-DD"})
			return
		}
		// Include the whole date_to day.
		q = q.Where("created < ?", to.AddDate(0, 0, 1))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var results []models.AssayResult
	if err := q.Order("created DESC").Limit(limit).Offset(offset).Find(&results).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    results,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"has_more": int64(offset+limit) < total,
	})
}

// GET /assay-results/all (admin)
func (ac *AssayController) All(c *gin.Context) {
	var results []models.AssayResult
	if err := config.DB.Order("created DESC").Find(&results).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

// GET /assay-results/user/:id (admin)
func (ac *AssayController) ByUser(c *gin.Context) {
	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	var results []models.AssayResult
	if err := config.DB.Where("customer = ?", userID).Order("created DESC").Find(&results).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, results)
}

// PUT /assay-results/:id/mark-ready (staff)
//
// Toggles the ready flag and runs the notification lifecycle for the
// transition: marking ready notifies the customer; reverting supersedes
// the ready notification and retracts the delivered pushes. The toggle
// commits regardless of delivery outcomes.
func (ac *AssayController) MarkReady(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var assay models.AssayResult
	if err := config.DB.First(&assay, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "assay not found"})
		return
	}

	assay.Ready = !assay.Ready
	assay.Modified = time.Now()
	if err := config.DB.Save(&assay).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	_, results, err := ac.Notifier.NotifyReadyTransition(config.DB, &assay, assay.Ready)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	message := "assay marked as not ready and customer notified"
	if assay.Ready {
		message = "assay marked as ready and customer notified"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":            message,
		"assay_id":           assay.ID,
		"ready":              assay.Ready,
		"notifications_sent": len(results),
	})
}
