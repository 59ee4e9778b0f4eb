package services

import (
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/hayashide/project-management-api/internal/access"
	"github.com/hayashide/project-management-api/internal/apperrors"
	"github.com/hayashide/project-management-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// AttachmentService records file metadata against tasks. The bytes live in an
// external object store; this side tracks name, size, type and uploader.
type AttachmentService struct {
	db    *gorm.DB
	guard *access.Guard
	log   *logrus.Entry
}

func NewAttachmentService(db *gorm.DB) *AttachmentService {
	return &AttachmentService{
		db:    db,
		guard: access.NewGuard(db),
		log:   logrus.WithField("service", "attachments"),
	}
}

// CreateAttachmentInput records one uploaded file against a task.
type CreateAttachmentInput struct {
	TaskID   uuid.UUID
	ActorID  uuid.UUID
	FileName string
	FileSize int64
	MimeType string
}

func (s *AttachmentService) CreateAttachment(input CreateAttachmentInput) (*models.Attachment, error) {
	if strings.TrimSpace(input.FileName) == "" {
		return nil, apperrors.Validation("file name is required")
	}
	if input.FileSize < 0 {
		return nil, apperrors.Validation("file size cannot be negative")
	}
	if _, _, err := s.guard.ResolveTask(input.TaskID, input.ActorID); err != nil {
		return nil, err
	}

	attachment := &models.Attachment{
		TaskID:     input.TaskID,
		FileName:   input.FileName,
		FileSize:   input.FileSize,
		MimeType:   input.MimeType,
		UploaderID: input.ActorID,
	}
	if err := s.db.Create(attachment).Error; err != nil {
		return nil, apperrors.Storage(err)
	}
	return attachment, nil
}

// ListAttachments returns a task's attachments, newest first.
func (s *AttachmentService) ListAttachments(taskID, userID uuid.UUID) ([]models.Attachment, error) {
	if _, _, err := s.guard.ResolveTask(taskID, userID); err != nil {
		return nil, err
	}

	var attachments []models.Attachment
	err := s.db.Where("task_id = ?", taskID).
		Order("uploaded_at DESC").
		Preload("Uploader").
		Find(&attachments).Error
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return attachments, nil
}

// DeleteAttachment removes an attachment record. The uploader may always
// delete their own; otherwise OWNER or ADMIN is required.
func (s *AttachmentService) DeleteAttachment(attachmentID, userID uuid.UUID) error {
	var attachment models.Attachment
	if err := s.db.First(&attachment, "id = ?", attachmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("attachment", attachmentID)
		}
		return apperrors.Storage(err)
	}

	_, grant, err := s.guard.ResolveTask(attachment.TaskID, userID)
	if err != nil {
		return err
	}

	if attachment.UploaderID != userID {
		if err := access.RequireRole(grant.Role, models.RoleOwner, models.RoleAdmin); err != nil {
			return err
		}
	}

	if err := s.db.Delete(&models.Attachment{}, "id = ?", attachmentID).Error; err != nil {
		return apperrors.Storage(err)
	}
	return nil
}
