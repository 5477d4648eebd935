package worker

import (
	"context"
	"math/rand"
	"time"

	"github.com/audiobookroom/audiobookroom/pkg/config"
	"github.com/audiobookroom/audiobookroom/pkg/importer"
	"github.com/audiobookroom/audiobookroom/pkg/jobs"
	"github.com/audiobookroom/audiobookroom/pkg/models"
	"github.com/google/uuid"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/uptrace/bun"
)

var processID = randStringBytes(8)

type Worker struct {
	config *config.Config
	log    logger.Logger

	processFuncs map[string]func(ctx context.Context, job *models.Job) error

	importer   *importer.Importer
	jobService *jobs.Service

	pollInterval   time.Duration
	queue          chan *models.Job
	shutdown       chan struct{}
	doneFetching   chan struct{}
	doneProcessing chan struct{}
}

func New(cfg *config.Config, db *bun.DB) *Worker {
	w := &Worker{
		config: cfg,
		log:    logger.New(),

		importer:   importer.New(db, cfg.LibraryDir),
		jobService: jobs.NewService(db),

		pollInterval:   5 * time.Second,
		queue:          make(chan *models.Job, cfg.WorkerProcesses),
		shutdown:       make(chan struct{}),
		doneFetching:   make(chan struct{}),
		doneProcessing: make(chan struct{}, cfg.WorkerProcesses),
	}

	w.processFuncs = map[string]func(ctx context.Context, job *models.Job) error{
		models.JobTypeImport: w.ProcessImportJob,
	}

	return w
}

func (w *Worker) Start() {
	go w.fetchJobs()
	for i := 0; i < w.config.WorkerProcesses; i++ {
		go w.processJobs()
	}
}

func (w *Worker) fetchJobs() {
	timer := time.NewTimer(w.pollInterval)

	for {
		select {
		case <-w.shutdown:
			// We're shutting down, so stop adding more jobs to the queue.
			w.doneFetching <- struct{}{}
			return
		case <-timer.C:
			j, err := w.jobService.ListJobs(context.Background(), jobs.ListJobsOptions{
				Limit:              pointerutil.Int(1),
				Statuses:           []string{models.JobStatusPending, models.JobStatusInProgress},
				ProcessIDToExclude: &processID,
			})
			if err != nil {
				w.log.Err(err).Error("list jobs error")
				timer.Reset(w.pollInterval)
				continue
			}
			for _, job := range j {
				select {
				case w.queue <- job:
				case <-w.shutdown:
				}
			}
			timer.Reset(w.pollInterval)
		}
	}
}

func (w *Worker) processJobs() {
	for {
		select {
		case <-w.shutdown:
			w.doneProcessing <- struct{}{}
			return
		case job := <-w.queue:
			w.processJob(job)
		}
	}
}

func (w *Worker) processJob(job *models.Job) {
	// Prep the context to be passed down to the process function.
	id, err := uuid.NewRandom()
	if err != nil {
		w.log.Err(err).Error("new uuid error")
		return
	}
	log := w.log.ID(id.String()).Root(logger.Data{"job_id": job.ID, "type": job.Type, "process_id": processID})
	ctx := log.WithContext(context.Background())

	// Update job to be in progress and claimed by this process.
	job.Status = models.JobStatusInProgress
	job.ProcessID = &processID

	err = w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{
		Columns: []string{"status", "process_id"},
	})
	if err != nil {
		log.Err(err).Error("update job error")
		return
	}

	// Find and invoke the appropriate process function.
	fn, ok := w.processFuncs[job.Type]
	if !ok {
		log.Error("can't find process function for type")
		w.fail(ctx, job, "unknown job type "+job.Type)
		return
	}
	err = fn(ctx, job)
	if err != nil {
		log.Err(err).Error("process error")
		w.fail(ctx, job, err.Error())
		return
	}

	// Update job to be completed so that it's not picked up anymore.
	job.Status = models.JobStatusCompleted

	err = w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{
		Columns: []string{"status", "progress", "data"},
	})
	if err != nil {
		log.Err(err).Error("update job error")
	}
}

// fail marks the job as failed so it isn't retried.
func (w *Worker) fail(ctx context.Context, job *models.Job, msg string) {
	job.Status = models.JobStatusFailed
	job.Error = &msg

	err := w.jobService.UpdateJob(ctx, job, jobs.UpdateJobOptions{
		Columns: []string{"status", "error"},
	})
	if err != nil {
		logger.FromContext(ctx).Err(err).Error("update job error")
	}
}

func (w *Worker) Shutdown() {
	close(w.shutdown)

	<-w.doneFetching
	for i := 0; i < w.config.WorkerProcesses; i++ {
		<-w.doneProcessing
	}
}

const letterBytes = "abcdef0123456789"

func randStringBytes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	return string(b)
}
