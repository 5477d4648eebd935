package jobs

import (
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/audiobookroom/audiobookroom/pkg/pagination"
)

type CreateJobPayload struct {
	Type string                `json:"type" validate:"required,oneof=import"`
	Data *models.JobImportData `json:"data" validate:"required"`
}

type ListJobsQuery struct {
	pagination.Query
	Status []string `query:"status" json:"status,omitempty" validate:"dive,oneof=pending in_progress completed failed"`
	Type   *string  `query:"type" json:"type,omitempty" validate:"omitempty,oneof=import"`
}
