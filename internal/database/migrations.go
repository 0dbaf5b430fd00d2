package database

import (
	"fmt"

	"github.com/nirmaan-tracker/nirmaan-api/internal/constants"
	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureSequences creates the counters used for display numbers so the first
// allocation takes the update path instead of racing on insert.
func EnsureSequences(db *gorm.DB) error {
	seqs := []models.Sequence{
		{Name: models.SequenceTask, Value: constants.TaskNumberStart - 1},
	}

	for _, seq := range seqs {
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&seq).Error; err != nil {
			return fmt.Errorf("failed to seed sequence %s: %w", seq.Name, err)
		}
	}

	return nil
}
