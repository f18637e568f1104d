package handlers

import (
	"fmt"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"igvalue/ig-value-estimator/internal/models"
	"igvalue/ig-value-estimator/internal/repositories"
	"igvalue/ig-value-estimator/internal/services"
	apperrors "igvalue/ig-value-estimator/pkg/errors"
)

type UploadHandler struct {
	uploadRepo     repositories.UploadRepository
	storageService services.StorageService
	maxFileSize    int64
	maxPosts       int
	logger         *zap.Logger
}

func NewUploadHandler(
	uploadRepo repositories.UploadRepository,
	storageService services.StorageService,
	maxFileSize int64,
	maxPosts int,
	logger *zap.Logger,
) *UploadHandler {
	return &UploadHandler{
		uploadRepo:     uploadRepo,
		storageService: storageService,
		maxFileSize:    maxFileSize,
		maxPosts:       maxPosts,
		logger:         logger,
	}
}

// HandleUpload handles POST /upload. It takes one `profile` screenshot and
// up to maxPosts `posts` images.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest("failed to parse multipart form", "form")
	}

	profileFiles := form.File["profile"]
	if len(profileFiles) == 0 {
		return badRequest("a 'profile' screenshot is required", "profile")
	}

	postFiles := form.File["posts"]
	if len(postFiles) == 0 {
		postFiles = form.File["posts[]"]
	}
	if len(postFiles) > h.maxPosts {
		return badRequest(fmt.Sprintf("too many post images: max %d", h.maxPosts), "posts")
	}

	for _, file := range append([]*multipart.FileHeader{profileFiles[0]}, postFiles...) {
		if file.Size > h.maxFileSize {
			return badRequest(fmt.Sprintf("%s is too large. Max size: %d bytes", file.Filename, h.maxFileSize), "file")
		}
	}

	profile, err := h.save(profileFiles[0], models.UploadKindProfile)
	if err != nil {
		return err
	}

	response := models.UploadResponse{
		ProfileUploadID: profile.ID.String(),
		PostUploadIDs:   make([]string, 0, len(postFiles)),
	}
	for _, file := range postFiles {
		post, err := h.save(file, models.UploadKindPost)
		if err != nil {
			return err
		}
		response.PostUploadIDs = append(response.PostUploadIDs, post.ID.String())
	}

	return c.Status(fiber.StatusCreated).JSON(response)
}

func (h *UploadHandler) save(file *multipart.FileHeader, kind models.UploadKind) (*models.Upload, error) {
	filename, filePath, err := h.storageService.SaveFile(file, string(kind))
	if err != nil {
		return nil, badRequest(err.Error(), string(kind))
	}

	upload := &models.Upload{
		Kind:             kind,
		Filename:         filename,
		OriginalFilename: file.Filename,
		FilePath:         filePath,
		Size:             file.Size,
	}

	if err := h.uploadRepo.Create(upload); err != nil {
		// Cleanup uploaded file if database insert fails
		if delErr := h.storageService.DeleteFile(filename); delErr != nil {
			h.logger.Warn("Failed to remove orphaned upload", zap.String("file", filename), zap.Error(delErr))
		}
		return nil, apperrors.NewStorageError("failed to save upload record", err)
	}

	return upload, nil
}
