package database

import (
	"github.com/gvlarp/renfield/pkg/internal/models"
	"gorm.io/gorm"
)

var AutoMaintainRange = []any{
	&models.VoteGroup{},
	&models.Vote{},
	&models.Ballot{},
}

func RunMigration(source *gorm.DB) error {
	if err := source.AutoMigrate(AutoMaintainRange...); err != nil {
		return err
	}

	return nil
}
