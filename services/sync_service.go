package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/ywy929/assay-dashboard-backend/models"
)

// SyncBatch is one push from the on-premise node: raw record payloads per
// entity type, each carrying its own modified timestamp. Records are kept
// raw so one malformed payload fails alone instead of failing the bind.
type SyncBatch struct {
	Users        []json.RawMessage `json:"users"`
	AssayResults []json.RawMessage `json:"assay_results"`
	SpoilRecords []json.RawMessage `json:"spoil_records"`
	Losses       []json.RawMessage `json:"losses"`
}

// SyncReport is what the sync caller always receives, even under partial
// failure: per-entity applied counts and the per-record error list.
type SyncReport struct {
	Success              bool     `json:"success"`
	UsersSynced          int      `json:"users_synced"`
	AssayResultsSynced   int      `json:"assay_results_synced"`
	SpoilRecordsSynced   int      `json:"spoil_records_synced"`
	LossesSynced         int      `json:"losses_synced"`
	NotificationsCreated int      `json:"notifications_created"`
	Errors               []string `json:"errors"`
}

// SyncChanges is the pull direction: every record modified since the
// given timestamp. Users go out as SyncUser so the credential fields
// the API model redacts still reach the on-premise node.
type SyncChanges struct {
	Users        []SyncUser           `json:"users"`
	AssayResults []models.AssayResult `json:"assay_results"`
	SpoilRecords []models.SpoilRecord `json:"spoil_records"`
	Losses       []models.Loss        `json:"losses"`
	ServerTime   time.Time            `json:"server_time"`
}

// SyncService merges batches from the on-premise database into the cloud
// database with last-writer-wins conflict resolution, creating customer
// notifications when an assay's ready flag transitions to true.
type SyncService struct {
	db       *gorm.DB
	notifier *NotificationService
}

func NewSyncService(db *gorm.DB, notifier *NotificationService) *SyncService {
	return &SyncService{db: db, notifier: notifier}
}

// Reconcile applies one batch. Entity types run in fixed dependency order
// (users, assay results, spoil records, losses) so later types can
// reference identifiers inserted earlier in the same batch. Each record
// is applied inside a savepoint: malformed payloads and constraint
// violations are recorded and skipped while the rest of the batch
// continues. The whole batch commits atomically; a commit failure voids
// every mutation and surfaces in the report.
func (s *SyncService) Reconcile(batch SyncBatch, now time.Time) *SyncReport {
	log.Printf("[SYNC] batch received at %s: %d users, %d assay results, %d spoil records, %d losses",
		now.Format(time.RFC3339), len(batch.Users), len(batch.AssayResults), len(batch.SpoilRecords), len(batch.Losses))

	rep := &SyncReport{Errors: []string{}}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, raw := range batch.Users {
			synced, err := applyInSavepoint(tx, raw, applyUser)
			if err != nil {
				rep.Errors = append(rep.Errors, fmt.Sprintf("User %d: %v", recordID(raw), err))
				continue
			}
			if synced {
				rep.UsersSynced++
			}
		}

		for _, raw := range batch.AssayResults {
			var outcome assayOutcome
			err := tx.Transaction(func(tx2 *gorm.DB) error {
				var err error
				outcome, err = s.applyAssayResult(tx2, raw)
				return err
			})
			if err != nil {
				rep.Errors = append(rep.Errors, fmt.Sprintf("AssayResult %d: %v", recordID(raw), err))
				continue
			}
			if outcome.synced {
				rep.AssayResultsSynced++
			}
			rep.NotificationsCreated += outcome.notified
		}

		for _, raw := range batch.SpoilRecords {
			synced, err := applyInSavepoint(tx, raw, applySpoilRecord)
			if err != nil {
				rep.Errors = append(rep.Errors, fmt.Sprintf("SpoilRecord %d: %v", recordID(raw), err))
				continue
			}
			if synced {
				rep.SpoilRecordsSynced++
			}
		}

		for _, raw := range batch.Losses {
			synced, err := applyInSavepoint(tx, raw, applyLoss)
			if err != nil {
				rep.Errors = append(rep.Errors, fmt.Sprintf("Loss %d: %v", recordID(raw), err))
				continue
			}
			if synced {
				rep.LossesSynced++
			}
		}

		return nil
	})
	if err != nil {
		// Commit failed: nothing persisted, counts are void.
		return &SyncReport{
			Success: false,
			Errors:  []string{fmt.Sprintf("commit failed: %v", err)},
		}
	}

	rep.Success = len(rep.Errors) == 0
	return rep
}

// Changes returns every record modified after the given timestamp, for
// the on-premise node's pull direction.
func (s *SyncService) Changes(since time.Time) (*SyncChanges, error) {
	changes := &SyncChanges{ServerTime: time.Now()}

	var users []models.User
	if err := s.db.Where("modified > ?", since).Find(&users).Error; err != nil {
		return nil, err
	}
	changes.Users = make([]SyncUser, 0, len(users))
	for _, u := range users {
		changes.Users = append(changes.Users, exportUser(u))
	}
	if err := s.db.Where("modified > ?", since).Find(&changes.AssayResults).Error; err != nil {
		return nil, err
	}
	if err := s.db.Where("modified > ?", since).Find(&changes.SpoilRecords).Error; err != nil {
		return nil, err
	}
	if err := s.db.Where("modified > ?", since).Find(&changes.Losses).Error; err != nil {
		return nil, err
	}
	return changes, nil
}

func applyInSavepoint(tx *gorm.DB, raw json.RawMessage, apply func(*gorm.DB, json.RawMessage) (bool, error)) (bool, error) {
	var synced bool
	err := tx.Transaction(func(tx2 *gorm.DB) error {
		var err error
		synced, err = apply(tx2, raw)
		return err
	})
	return synced, err
}

// recordID extracts just the identifier for error reporting; 0 when even
// that cannot be parsed.
func recordID(raw json.RawMessage) uint {
	var head struct {
		ID uint `json:"id"`
	}
	_ = json.Unmarshal(raw, &head)
	return head.ID
}

// newerThan is the last-writer-wins rule: incoming wins only when its
// timestamp is strictly newer than the local one, or the local one is
// absent. Ties and older timestamps are silently discarded.
func newerThan(incoming *SyncTime, local time.Time) bool {
	if incoming == nil || incoming.IsZero() {
		return false
	}
	return local.IsZero() || incoming.After(local)
}

func applyUser(tx *gorm.DB, raw json.RawMessage) (bool, error) {
	var in userSync
	if err := json.Unmarshal(raw, &in); err != nil {
		return false, err
	}
	if in.ID == 0 {
		return false, errors.New("missing id")
	}

	var existing models.User
	err := tx.First(&existing, in.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user := in.toModel()
		return true, tx.Create(&user).Error
	}
	if err != nil {
		return false, err
	}

	if !newerThan(in.Modified, existing.Modified) {
		return false, nil
	}
	in.applyTo(&existing)
	return true, tx.Save(&existing).Error
}

type assayOutcome struct {
	synced   bool
	notified int
}

func (s *SyncService) applyAssayResult(tx *gorm.DB, raw json.RawMessage) (assayOutcome, error) {
	var in assayResultSync
	if err := json.Unmarshal(raw, &in); err != nil {
		return assayOutcome{}, err
	}
	if in.ID == 0 {
		return assayOutcome{}, errors.New("missing id")
	}

	var existing models.AssayResult
	err := tx.First(&existing, in.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		assay := in.toModel()
		if err := tx.Create(&assay).Error; err != nil {
			return assayOutcome{}, err
		}
		out := assayOutcome{synced: true}
		// A brand-new record arriving already ready still notifies.
		if assay.Ready {
			created, _, err := s.notifier.NotifyReadyTransition(tx, &assay, true)
			if err != nil {
				return assayOutcome{}, err
			}
			out.notified = created
		}
		return out, nil
	}
	if err != nil {
		return assayOutcome{}, err
	}

	if !newerThan(in.Modified, existing.Modified) {
		return assayOutcome{}, nil
	}

	wasReady := existing.Ready
	in.applyTo(&existing)
	if err := tx.Save(&existing).Error; err != nil {
		return assayOutcome{}, err
	}

	out := assayOutcome{synced: true}
	if existing.Ready && !wasReady {
		created, _, err := s.notifier.NotifyReadyTransition(tx, &existing, true)
		if err != nil {
			return assayOutcome{}, err
		}
		out.notified = created
	}
	// Design decision: a ready true→false arriving via sync is applied as
	// a plain field update and does not run the revert-notification path.
	// Sync is informational catch-up; only the interactive mark-ready
	// toggle notifies in both directions. Unifying the paths would
	// multiply notification volume when the on-premise node re-syncs
	// stale rows.
	return out, nil
}

func applySpoilRecord(tx *gorm.DB, raw json.RawMessage) (bool, error) {
	var in spoilRecordSync
	if err := json.Unmarshal(raw, &in); err != nil {
		return false, err
	}
	if in.ID == 0 {
		return false, errors.New("missing id")
	}

	var existing models.SpoilRecord
	err := tx.First(&existing, in.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		spoil := in.toModel()
		return true, tx.Create(&spoil).Error
	}
	if err != nil {
		return false, err
	}

	if !newerThan(in.Modified, existing.Modified) {
		return false, nil
	}
	in.applyTo(&existing)
	return true, tx.Save(&existing).Error
}

func applyLoss(tx *gorm.DB, raw json.RawMessage) (bool, error) {
	var in lossSync
	if err := json.Unmarshal(raw, &in); err != nil {
		return false, err
	}
	if in.ID == 0 {
		return false, errors.New("missing id")
	}

	var existing models.Loss
	err := tx.First(&existing, in.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		loss := in.toModel()
		return true, tx.Create(&loss).Error
	}
	if err != nil {
		return false, err
	}

	if !newerThan(in.Modified, existing.Modified) {
		return false, nil
	}
	in.applyTo(&existing)
	return true, tx.Save(&existing).Error
}
