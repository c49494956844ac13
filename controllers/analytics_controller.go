package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ywy929/assay-dashboard-backend/middlewares"
	"github.com/ywy929/assay-dashboard-backend/services"
	"github.com/ywy929/assay-dashboard-backend/utils"
)

type AnalyticsController struct {
	Analytics *services.AnalyticsService
}

func NewAnalyticsController(analytics *services.AnalyticsService) *AnalyticsController {
	return &AnalyticsController{Analytics: analytics}
}

// GET /analytics/date-range
func (ac *AnalyticsController) DateRange(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	dr, err := ac.Analytics.AvailableDateRange(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dr)
}

// GET /analytics/dashboard?period=month&offset=0
func (ac *AnalyticsController) Dashboard(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	period := c.DefaultQuery("period", "month")
	offset := intQuery(c, "offset", 0)

	metrics, err := ac.Analytics.Dashboard(user, period, offset)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidPeriod) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// GET /analytics/efficiency?period=month&offset=0
func (ac *AnalyticsController) Efficiency(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	period := c.DefaultQuery("period", "month")
	offset := intQuery(c, "offset", 0)

	metrics, err := ac.Analytics.Efficiency(user, period, offset)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidPeriod) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, metrics)
}

// GET /analytics/trend?period=month&offset=0
func (ac *AnalyticsController) Trend(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	period := c.DefaultQuery("period", "month")
	offset := intQuery(c, "offset", 0)

	points, err := ac.Analytics.Trend(user, period, offset)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidPeriod) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, points)
}

// GET /analytics/customers/top?limit=10
//
// Customers get an empty list rather than a 403 so the mobile dashboard
// can render the same screen for every role.
func (ac *AnalyticsController) TopCustomers(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	if user.Role == "customer" {
		c.JSON(http.StatusOK, []services.TopCustomer{})
		return
	}

	top, err := ac.Analytics.TopCustomers(intQuery(c, "limit", 10))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, top)
}

// GET /analytics/trends/daily?days=30
func (ac *AnalyticsController) DailyTrends(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	trends, err := ac.Analytics.DailyTrends(user, intQuery(c, "days", 30))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trends)
}

// GET /analytics/trends/monthly?months=12
func (ac *AnalyticsController) MonthlyTrends(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	trends, err := ac.Analytics.MonthlyTrends(user, intQuery(c, "months", 12))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, trends)
}

// GET /analytics/daily-report?timeframe=today&offset=0
func (ac *AnalyticsController) DailyReport(c *gin.Context) {
	timeframe := c.DefaultQuery("timeframe", "today")
	offset := intQuery(c, "offset", 0)

	report, err := ac.Analytics.Report(timeframe, offset)
	if err != nil {
		if errors.Is(err, services.ErrInvalidTimeframe) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}
