package player

type LoadPayload struct {
	BookID    int     `json:"book_id" validate:"required,min=1"`
	ChapterID int     `json:"chapter_id" validate:"required,min=1"`
	Offset    float64 `json:"offset" validate:"min=0"`
}

type ResumePayload struct {
	BookID int `json:"book_id" validate:"required,min=1"`
}

// TimePayload is a time update from the audio element. Generation is the one
// of the snapshot that started the chapter.
type TimePayload struct {
	Generation uint64  `json:"generation" validate:"required"`
	Offset     float64 `json:"offset" validate:"min=0"`
}

type SleepPayload struct {
	Duration string `json:"duration" mod:"trim" validate:"required,duration"`
}
