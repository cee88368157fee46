package infrastructure

import (
	"os"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"recruit-pipeline/config"
	"recruit-pipeline/domain"
	"recruit-pipeline/logger"
	"recruit-pipeline/pipeline"
)

// OpenDatabase connects with the configured driver and migrates the schema.
// MySQL is the production store; SQLite serves local runs and tests.
func OpenDatabase(driver, dsn string, log *logger.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverMySQL:
		dialector = mysql.Open(dsn)
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, errors.Newf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Warn)})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("connected to database and migrated schema", "driver", driver)
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&domain.Job{}, &domain.Upload{}, &domain.Application{}, &domain.Evaluation{}); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}
	return nil
}

// SeedJob is the YAML shape of a job in the seed file.
type SeedJob struct {
	Title       string           `yaml:"title"`
	Description string           `yaml:"description"`
	Rubric      string           `yaml:"rubric"`
	Pipeline    *pipeline.Config `yaml:"pipeline"`
}

type seedFile struct {
	Jobs []SeedJob `yaml:"jobs"`
}

// SeedJobs inserts the jobs from path when the jobs table is empty. Without
// a seed file a single demo job with the default pipeline is created.
func SeedJobs(db *gorm.DB, path string, log *logger.Logger) error {
	var count int64
	if err := db.Model(&domain.Job{}).Count(&count).Error; err != nil {
		return errors.Wrap(err, "failed to count jobs")
	}
	if count > 0 {
		return nil
	}

	seeds := []SeedJob{{
		Title: "Product Engineer (Backend)",
		Description: "Product Engineer (Backend) with focus on Go, MySQL, RabbitMQ and AI/LLM integration. " +
			"Experience with RESTful APIs, database management and cloud technologies is required.",
	}}
	if path != "" {
		loaded, err := LoadSeedJobs(path)
		if err != nil {
			return err
		}
		seeds = loaded
	}

	jobs := make([]domain.Job, 0, len(seeds))
	for _, s := range seeds {
		cfg := pipeline.ResolveConfig(s.Pipeline)
		if err := pipeline.Validate(cfg); err != nil {
			return errors.Wrapf(err, "seed job %q", s.Title)
		}
		jobs = append(jobs, domain.Job{
			Title:       s.Title,
			Description: s.Description,
			Rubric:      s.Rubric,
			Pipeline:    &cfg,
		})
	}
	if err := db.Create(&jobs).Error; err != nil {
		return errors.Wrap(err, "failed to seed jobs")
	}

	log.Info("seeded initial jobs", "count", len(jobs))
	return nil
}

func LoadSeedJobs(path string) ([]SeedJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read seed file")
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "failed to parse seed file")
	}
	return f.Jobs, nil
}
