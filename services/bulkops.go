package services

import (
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// BulkStep is one named mutation in an ordered multi-step commit.
type BulkStep struct {
	Name string
	Run  func(tx *gorm.DB) error
}

// BulkResult reports aggregate success of a multi-step commit.
type BulkResult struct {
	Success        bool   `json:"success"`
	CompletedCount int    `json:"completed_count"`
	TotalCount     int    `json:"total_count"`
	FailedStep     string `json:"failed_step,omitempty"`
	Error          error  `json:"-"`
}

// Commit executes steps strictly in order inside a single database
// transaction. The first failing step stops execution and rolls the
// transaction back, so a failed result leaves storage untouched. The result
// still reports how many steps had run when the failure hit.
func Commit(db *gorm.DB, op string, steps []BulkStep) BulkResult {
	result := BulkResult{TotalCount: len(steps)}

	txErr := db.Transaction(func(tx *gorm.DB) error {
		for _, step := range steps {
			if err := step.Run(tx); err != nil {
				result.FailedStep = step.Name
				return err
			}
			result.CompletedCount++
		}
		return nil
	})

	if txErr != nil {
		logrus.WithFields(logrus.Fields{
			"op":        op,
			"step":      result.FailedStep,
			"completed": result.CompletedCount,
			"total":     result.TotalCount,
		}).WithError(txErr).Error("Bulk commit failed")

		result.Error = &PartialBatchError{
			Op:             op,
			FailedStep:     result.FailedStep,
			CompletedCount: result.CompletedCount,
			TotalCount:     result.TotalCount,
			Err:            txErr,
		}
		return result
	}

	result.Success = true
	return result
}

// CommitBestEffort executes steps strictly in order without a wrapping
// transaction. Execution stops at the first failing step and the steps
// already applied stay applied; callers must treat partial completion as a
// fact to reconcile by re-fetching authoritative state.
func CommitBestEffort(db *gorm.DB, op string, steps []BulkStep) BulkResult {
	result := BulkResult{TotalCount: len(steps)}

	for _, step := range steps {
		if err := step.Run(db); err != nil {
			logrus.WithFields(logrus.Fields{
				"op":        op,
				"step":      step.Name,
				"completed": result.CompletedCount,
				"total":     result.TotalCount,
			}).WithError(err).Error("Best-effort commit stopped")

			result.FailedStep = step.Name
			result.Error = &PartialBatchError{
				Op:             op,
				FailedStep:     step.Name,
				CompletedCount: result.CompletedCount,
				TotalCount:     result.TotalCount,
				Err:            err,
			}
			return result
		}
		result.CompletedCount++
	}

	result.Success = true
	return result
}
