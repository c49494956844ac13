package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ywy929/assay-dashboard-backend/services"
)

type SyncController struct {
	Sync *services.SyncService
}

func NewSyncController(sync *services.SyncService) *SyncController {
	return &SyncController{Sync: sync}
}

// GET /sync/changes?since= — the on-premise node pulls every record
// modified since its last sync.
func (sc *SyncController) Changes(c *gin.Context) {
	since, err := parseSince(c.Query("since"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid since timestamp"})
		return
	}

	changes, err := sc.Sync.Changes(since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, changes)
}

// POST /sync/push — the on-premise node pushes its changed rows; the
// reconciler merges them and always answers with a full report.
func (sc *SyncController) Push(c *gin.Context) {
	var batch services.SyncBatch
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := sc.Sync.Reconcile(batch, time.Now())
	c.JSON(http.StatusOK, report)
}

func parseSince(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.UTC)
}
