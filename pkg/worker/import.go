package worker

import (
	"context"

	"github.com/audiobookroom/audiobookroom/pkg/importer"
	"github.com/audiobookroom/audiobookroom/pkg/jobs"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/segmentio/encoding/json"
)

// ProcessImportJob imports the directory named in the job data. The job's
// progress is the percentage of files linked so far.
func (w *Worker) ProcessImportJob(ctx context.Context, job *models.Job) error {
	log := logger.FromContext(ctx)

	data, ok := job.DataParsed.(*models.JobImportData)
	if !ok {
		return errors.Errorf("unexpected data for import job: %T", job.DataParsed)
	}

	log.Info("processing import job", logger.Data{"source_dir": data.SourceDir})

	result, err := w.importer.Import(ctx, importer.Options{
		AuthorName: data.AuthorName,
		BookTitle:  data.BookTitle,
		SourceDir:  data.SourceDir,
		OnProgress: func(done, total int) {
			job.Progress = done * 100 / total
			err := w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{Columns: []string{"progress"}})
			if err != nil {
				log.Err(err).Warn("failed to update job progress")
			}
		},
	})
	if err != nil {
		return err
	}

	data.BookID = &result.Book.ID
	raw, err := json.Marshal(data)
	if err != nil {
		return errors.WithStack(err)
	}
	job.Data = string(raw)

	return nil
}
