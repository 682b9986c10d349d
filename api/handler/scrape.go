package handler

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/shopsnap/imageproc"
	"github.com/use-agent/shopsnap/jobs"
	"github.com/use-agent/shopsnap/models"
	"github.com/use-agent/shopsnap/packager"
)

// JobRunner starts jobs and knows where their output lives.
// *jobs.Runner implements it.
type JobRunner interface {
	Submit(ctx context.Context, req models.ScrapeRequest) (*models.Job, error)
	JobDir(id string) string
}

// Submit returns a handler for POST /api/scrape.
//
// The job runs in the background; clients poll GET /api/scrape/:id.
func Submit(runner JobRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		job, err := runner.Submit(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SubmitResponse{
			JobID:  job.ID,
			Status: job.Status,
		})
	}
}

// GetJob returns a handler for GET /api/scrape/:id.
func GetJob(store jobs.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := lookupJob(c, store)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, job)
	}
}

// Download returns a handler for GET /api/scrape/:id/download. The zip
// is named after the product model.
func Download(store jobs.Store, runner JobRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := lookupJob(c, store)
		if !ok {
			return
		}
		if job.Status != models.JobCompleted || job.Result == nil {
			notFound(c, "result not available")
			return
		}

		path := filepath.Join(runner.JobDir(job.ID), packager.ArchiveFile)
		if _, err := os.Stat(path); err != nil {
			notFound(c, "result not available")
			return
		}
		c.Header("Content-Type", "application/zip")
		c.FileAttachment(path, imageproc.SanitizeModel(job.Result.ProductModel)+".zip")
	}
}

// Image returns a handler for GET /api/scrape/:id/images/:filename.
func Image(store jobs.Store, runner JobRunner) gin.HandlerFunc {
	return func(c *gin.Context) {
		job, ok := lookupJob(c, store)
		if !ok {
			return
		}

		name := c.Param("filename")
		if !validFileName(name) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "invalid filename",
				},
			})
			return
		}

		path := filepath.Join(runner.JobDir(job.ID), imageproc.ImagesDir, name)
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			notFound(c, "image not found")
			return
		}
		c.Header("Content-Type", "image/jpeg")
		c.File(path)
	}
}

// validFileName rejects anything that could step outside the images dir.
func validFileName(name string) bool {
	return name != "" && !strings.Contains(name, "..") && !strings.ContainsAny(name, `/\`)
}

// lookupJob fetches the :id job, writing the error response on failure.
func lookupJob(c *gin.Context, store jobs.Store) (*models.Job, bool) {
	job, err := store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, jobs.ErrNotFound) {
		notFound(c, "job not found")
		return nil, false
	}
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return job, true
}

func notFound(c *gin.Context, msg string) {
	c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeJobNotFound,
			Message: msg,
		},
	})
}

// respondError maps an error to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error) {
	scrapeErr := models.AsScrapeError(err)
	c.JSON(mapErrorToStatus(scrapeErr), models.ErrorResponse{
		Error: scrapeErr.ToDetail(),
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeAcquisition:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeJobNotFound:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
