package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/ywy929/assay-dashboard-backend/config"
	"github.com/ywy929/assay-dashboard-backend/middlewares"
	"github.com/ywy929/assay-dashboard-backend/models"
)

// GET /users/all (admin)
func GetAllUsers(c *gin.Context) {
	var users []models.User
	if err := config.DB.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}

// GET /users/me
func GetOwnProfile(c *gin.Context) {
	c.JSON(http.StatusOK, middlewares.CurrentUser(c))
}

type userName struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// GET /users/names — autocomplete. Admin sees all users; boss and worker
// see only customers with assay results.
func GetUserNames(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	var names []userName
	switch user.Role {
	case "admin":
		if err := config.DB.Model(&models.User{}).
			Select("id, name, role").Order("name").Scan(&names).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	case "boss", "worker":
		if err := customersWithResults().Order("name").Scan(&names).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	default:
		c.JSON(http.StatusForbidden, gin.H{"error": "you don't have permission to access user names"})
		return
	}
	c.JSON(http.StatusOK, names)
}

// GET /users/customers/names — customers with at least one assay result.
func GetCustomerNames(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user.Role != "admin" && user.Role != "boss" && user.Role != "worker" {
		c.JSON(http.StatusForbidden, gin.H{"error": "you don't have permission to access customer names"})
		return
	}

	var names []userName
	if err := customersWithResults().Order("name").Scan(&names).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, names)
}

func customersWithResults() *gorm.DB {
	return config.DB.Model(&models.User{}).
		Select(`DISTINCT "user".id, "user".name, "user".role`).
		Joins(`JOIN assayresult ON "user".id = assayresult.customer`).
		Where(`"user".role = ?`, "customer")
}

type customerDetail struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Area        string    `json:"area"`
	Billing     bool      `json:"billing"`
	Coupon      bool      `json:"coupon"`
	Created     time.Time `json:"created"`
	TotalAssays int64     `json:"total_assays"`
}

func describeCustomer(u models.User) (customerDetail, error) {
	detail := customerDetail{
		ID: u.ID, Name: u.Name, Email: u.Email, Phone: u.Phone,
		Area: u.Area, Billing: u.Billing, Coupon: u.Coupon, Created: u.Created,
	}
	err := config.DB.Model(&models.AssayResult{}).
		Where("customer = ?", u.ID).Count(&detail.TotalAssays).Error
	return detail, err
}

// GET /users/customers?search=&limit=20&offset=0 — paginated customer
// list for staff; search matches name, phone, or email.
func GetCustomers(c *gin.Context) {
	limit := intQuery(c, "limit", 20)
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := intQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	query := config.DB.Model(&models.User{}).Where("role = ?", "customer")
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name ILIKE ? OR phone ILIKE ? OR email ILIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var customers []models.User
	if err := query.Order("name").Offset(offset).Limit(limit).Find(&customers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := make([]customerDetail, 0, len(customers))
	for _, u := range customers {
		detail, err := describeCustomer(u)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		items = append(items, detail)
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    items,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"has_more": int64(offset+limit) < total,
	})
}

// GET /users/customers/:id (staff)
func GetCustomerDetail(c *gin.Context) {
	var customer models.User
	err := config.DB.Where("id = ? AND role = ?", c.Param("id"), "customer").First(&customer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	detail, err := describeCustomer(customer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GET /users/:id (admin)
func GetUserByID(c *gin.Context) {
	var user models.User
	err := config.DB.First(&user, "id = ?", c.Param("id")).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}
