package progress

import "github.com/audiobookroom/audiobookroom/pkg/pagination"

type SetProgressPayload struct {
	UserID    int     `json:"user_id" validate:"required"`
	ChapterID int     `json:"chapter_id" validate:"required"`
	Offset    float64 `json:"offset" validate:"min=0"`
}

type ListProgressQuery struct {
	pagination.Query
}
