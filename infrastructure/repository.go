package infrastructure

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"recruit-pipeline/domain"
	"recruit-pipeline/logger"
	"recruit-pipeline/pipeline"
)

// Repository persists jobs, applications and evaluations with gorm.
type Repository struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepository(db *gorm.DB, log *logger.Logger) *Repository {
	return &Repository{db: db, log: log.With("component", "repository")}
}

func notFound(err error, entity string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrapf(domain.ErrNotFound, "%s %d", entity, id)
	}
	return errors.Wrapf(err, "failed to load %s %d", entity, id)
}

func (r *Repository) CreateJob(ctx context.Context, job *domain.Job) error {
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return errors.Wrap(err, "failed to create job")
	}
	return nil
}

func (r *Repository) GetJob(ctx context.Context, id uint) (*domain.Job, error) {
	var job domain.Job
	if err := r.db.WithContext(ctx).First(&job, id).Error; err != nil {
		return nil, notFound(err, "job", id)
	}
	return &job, nil
}

// GetPipelineConfig returns the job's stored configuration, or nil when the
// job has none. It does not validate.
func (r *Repository) GetPipelineConfig(ctx context.Context, jobID uint) (*pipeline.Config, error) {
	job, err := r.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return job.Pipeline, nil
}

// SetPipelineConfig validates cfg and stores it in full, or not at all.
// When rescore is set, every application of the job is locked and given the
// overall score rescore returns, inside the same transaction as the config
// write. It returns how many applications changed.
func (r *Repository) SetPipelineConfig(ctx context.Context, jobID uint, cfg pipeline.Config, rescore func(app domain.Application) int) (int, error) {
	if err := pipeline.Validate(cfg); err != nil {
		return 0, err
	}
	changed := 0
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job domain.Job
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&job, jobID).Error; err != nil {
			return notFound(err, "job", jobID)
		}
		err := tx.Model(&domain.Job{ID: jobID}).Select("pipeline", "updated_at").
			Updates(&domain.Job{Pipeline: &cfg, UpdatedAt: time.Now()}).Error
		if err != nil {
			return errors.Wrapf(err, "failed to store pipeline for job %d", jobID)
		}
		if rescore == nil {
			return nil
		}

		var apps []domain.Application
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("job_id = ?", jobID).Order("id").Find(&apps).Error; err != nil {
			return errors.Wrapf(err, "failed to lock applications for job %d", jobID)
		}
		for _, app := range apps {
			score := rescore(app)
			if score == app.OverallScore {
				continue
			}
			if err := tx.Model(&domain.Application{}).Where("id = ?", app.ID).Update("overall_score", score).Error; err != nil {
				return errors.Wrapf(err, "failed to rescore application %d", app.ID)
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}

// CreateApplication stores the upload, the application and its queued
// resume evaluation in one transaction.
func (r *Repository) CreateApplication(ctx context.Context, upload *domain.Upload, app *domain.Application, eval *domain.Evaluation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(upload).Error; err != nil {
			return errors.Wrap(err, "failed to save upload")
		}
		app.UploadID = upload.ID
		if err := tx.Create(app).Error; err != nil {
			return errors.Wrap(err, "failed to save application")
		}
		eval.ApplicationID = app.ID
		eval.UploadID = upload.ID
		eval.JobID = app.JobID
		if err := tx.Create(eval).Error; err != nil {
			return errors.Wrap(err, "failed to create evaluation")
		}
		return nil
	})
}

func (r *Repository) GetApplication(ctx context.Context, id uint) (*domain.Application, error) {
	var app domain.Application
	if err := r.db.WithContext(ctx).First(&app, id).Error; err != nil {
		return nil, notFound(err, "application", id)
	}
	return &app, nil
}

func (r *Repository) ListApplications(ctx context.Context, jobID uint) ([]domain.Application, error) {
	var apps []domain.Application
	if err := r.db.WithContext(ctx).Where("job_id = ?", jobID).Order("overall_score DESC, id ASC").Find(&apps).Error; err != nil {
		return nil, errors.Wrapf(err, "failed to list applications for job %d", jobID)
	}
	return apps, nil
}

// UpdateApplication gives fn exclusive access to one application together
// with its job's stored pipeline configuration, both read in the same
// transaction. The job row is share-locked before the application row is
// locked for update, the order SetPipelineConfig takes, so config writes and
// stage updates on one job serialize. The application is saved when fn
// returns nil; any error from fn rolls everything back.
func (r *Repository) UpdateApplication(ctx context.Context, id uint, fn func(app *domain.Application, cfg *pipeline.Config) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ref domain.Application
		if err := tx.Select("id", "job_id").First(&ref, id).Error; err != nil {
			return notFound(err, "application", id)
		}
		var job domain.Job
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).Select("id", "pipeline").First(&job, ref.JobID).Error; err != nil {
			return notFound(err, "job", ref.JobID)
		}
		var app domain.Application
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&app, id).Error; err != nil {
			return notFound(err, "application", id)
		}
		if err := fn(&app, job.Pipeline); err != nil {
			return err
		}
		if err := tx.Save(&app).Error; err != nil {
			return errors.Wrapf(err, "failed to save application %d", id)
		}
		r.log.Debug("application saved", "application_id", id, "stage", app.CurrentStage, "overall_score", app.OverallScore)
		return nil
	})
}

func (r *Repository) GetUpload(ctx context.Context, id uint) (*domain.Upload, error) {
	var upload domain.Upload
	if err := r.db.WithContext(ctx).First(&upload, id).Error; err != nil {
		return nil, notFound(err, "upload", id)
	}
	return &upload, nil
}

func (r *Repository) GetEvaluation(ctx context.Context, id uint) (*domain.Evaluation, error) {
	var eval domain.Evaluation
	if err := r.db.WithContext(ctx).First(&eval, id).Error; err != nil {
		return nil, notFound(err, "evaluation", id)
	}
	return &eval, nil
}

func (r *Repository) UpdateEvaluation(ctx context.Context, id uint, updates map[string]interface{}) error {
	if err := r.db.WithContext(ctx).Model(&domain.Evaluation{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return errors.Wrapf(err, "failed to update evaluation %d", id)
	}
	return nil
}
