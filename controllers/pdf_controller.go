package controllers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ywy929/assay-dashboard-backend/config"
	"github.com/ywy929/assay-dashboard-backend/middlewares"
	"github.com/ywy929/assay-dashboard-backend/models"
	"github.com/ywy929/assay-dashboard-backend/services"
	"github.com/ywy929/assay-dashboard-backend/utils"
)

type PDFController struct {
	Certificates *services.CertificateGenerator
	Archive      *services.ArchiveService
}

func NewPDFController(certificates *services.CertificateGenerator, archive *services.ArchiveService) *PDFController {
	return &PDFController{Certificates: certificates, Archive: archive}
}

func certificateItem(result *models.AssayResult) services.CertificateItem {
	item := services.CertificateItem{
		ItemCode:    result.ItemCode,
		FinalResult: utils.FormatFinalResult(result.FinalResult),
	}
	if result.SampleWeight != 0 {
		item.SampleWeight = strconv.FormatFloat(result.SampleWeight, 'f', 2, 64) + "g"
	}
	if result.SampleReturn != 0 {
		item.SampleReturn = strconv.FormatFloat(result.SampleReturn, 'f', 2, 64) + "g"
	}
	return item
}

// canAccess applies the customer visibility rules for certificates.
func canAccess(user *models.User, result *models.AssayResult) bool {
	if user.Role != "customer" {
		return true
	}
	return result.Customer == user.ID && result.Ready && !result.Deleted
}

// GET /pdf/generate/single/:id
func (pc *PDFController) Single(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var result models.AssayResult
	if err := config.DB.First(&result, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "assay result not found"})
		return
	}
	if !canAccess(user, &result) {
		c.JSON(http.StatusForbidden, gin.H{"error": "you don't have permission to access this result"})
		return
	}

	var customer models.User
	if err := config.DB.First(&customer, result.Customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return
	}

	pc.render(c, &customer, []models.AssayResult{result})
}

// GET /pdf/generate/batch?ids=1,2,3
//
// All assays must belong to the same customer.
func (pc *PDFController) Batch(c *gin.Context) {
	user := middlewares.CurrentUser(c)

	var ids []int
	for _, part := range strings.Split(c.Query("ids"), ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid ids"})
			return
		}
		ids = append(ids, id)
	}

	var results []models.AssayResult
	if err := config.DB.Where("id IN ?", ids).Order("created ASC").Find(&results).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(results) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no assay results found"})
		return
	}

	customerID := results[0].Customer
	for i := range results {
		if results[i].Customer != customerID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "all assays must belong to the same customer"})
			return
		}
		if !canAccess(user, &results[i]) {
			c.JSON(http.StatusForbidden, gin.H{"error": "you don't have permission to access these results"})
			return
		}
	}

	var customer models.User
	if err := config.DB.First(&customer, customerID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return
	}

	pc.render(c, &customer, results)
}

// GET /pdf/generate/:formcode — one certificate for every assay sharing
// a submission form. Customers only get it once every result on the
// form is theirs and ready.
func (pc *PDFController) ByFormCode(c *gin.Context) {
	user := middlewares.CurrentUser(c)
	formCode, err := strconv.Atoi(c.Param("formcode"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid formcode"})
		return
	}

	var results []models.AssayResult
	if err := config.DB.Where("form_code = ?", formCode).Order("created ASC").Find(&results).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(results) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "no assay results found for this formcode"})
		return
	}

	if user.Role == "customer" {
		for i := range results {
			if results[i].Customer != user.ID {
				c.JSON(http.StatusForbidden, gin.H{"error": "you don't have permission to access these results"})
				return
			}
		}
		for i := range results {
			if !results[i].Ready {
				c.JSON(http.StatusNotFound, gin.H{"error": "no assay results found for this formcode"})
				return
			}
		}
	}

	var customer models.User
	if err := config.DB.First(&customer, results[0].Customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
		return
	}

	pc.render(c, &customer, results)
}

func (pc *PDFController) render(c *gin.Context, customer *models.User, results []models.AssayResult) {
	items := make([]services.CertificateItem, 0, len(results))
	itemCodes := make([]string, 0, len(results))
	for i := range results {
		items = append(items, certificateItem(&results[i]))
		itemCodes = append(itemCodes, results[i].ItemCode)
	}

	date := results[0].Created.Format("02 Jan 2006")
	pdfData, err := pc.Certificates.Generate(customer.Name, date, items)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if pc.Archive != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := pc.Archive.Store(ctx, customer.Name, pdfData); err != nil {
			log.Printf("[PDF] archiving certificate failed: %v", err)
		}
	}

	filename := utils.BuildPDFFilename(customer.Name, itemCodes)
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfData)
}
