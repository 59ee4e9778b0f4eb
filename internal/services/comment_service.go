package services

import (
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/hayashide/project-management-api/internal/access"
	"github.com/hayashide/project-management-api/internal/apperrors"
	"github.com/hayashide/project-management-api/internal/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// mentionPattern matches user references written as @[uuid].
var mentionPattern = regexp.MustCompile(`@\[([0-9a-fA-F-]{36})\]`)

// CommentService owns two-level comment threads on tasks.
type CommentService struct {
	db    *gorm.DB
	guard *access.Guard
	log   *logrus.Entry
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{
		db:    db,
		guard: access.NewGuard(db),
		log:   logrus.WithField("service", "comments"),
	}
}

// CreateComment posts a root comment or a reply. Replies must reference a
// comment on the same task, and nesting stops at one level.
func (s *CommentService) CreateComment(taskID, authorID uuid.UUID, content string, parentID *uuid.UUID) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.Validation("comment content is required")
	}
	if _, _, err := s.guard.ResolveTask(taskID, authorID); err != nil {
		return nil, err
	}

	if parentID != nil {
		var parent models.Comment
		if err := s.db.First(&parent, "id = ?", *parentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NotFound("comment", *parentID)
			}
			return nil, apperrors.Storage(err)
		}
		if parent.TaskID != taskID {
			return nil, apperrors.Validation("parent comment belongs to a different task")
		}
		if parent.ParentID != nil {
			return nil, apperrors.Validation("replies cannot be nested further")
		}
	}

	comment := &models.Comment{
		TaskID:   taskID,
		AuthorID: authorID,
		ParentID: parentID,
		Content:  content,
		Mentions: extractMentions(content),
	}

	if err := s.db.Create(comment).Error; err != nil {
		return nil, apperrors.Storage(err)
	}

	if err := s.db.Preload("Author").First(comment, "id = ?", comment.ID).Error; err != nil {
		return nil, apperrors.Storage(err)
	}
	return comment, nil
}

// extractMentions collects the user IDs referenced in content, deduplicated,
// as a comma-joined string.
func extractMentions(content string) string {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	var ids []string
	for _, m := range matches {
		if _, err := uuid.Parse(m[1]); err != nil {
			continue
		}
		id := strings.ToLower(m[1])
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return strings.Join(ids, ",")
}

// ListComments returns a task's root comments, oldest first, each with its
// replies loaded in order.
func (s *CommentService) ListComments(taskID, userID uuid.UUID) ([]models.Comment, error) {
	if _, _, err := s.guard.ResolveTask(taskID, userID); err != nil {
		return nil, err
	}

	var comments []models.Comment
	err := s.db.Where("task_id = ? AND parent_id IS NULL", taskID).
		Order("created_at ASC").
		Preload("Author").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("comments.created_at ASC")
		}).
		Preload("Replies.Author").
		Find(&comments).Error
	if err != nil {
		return nil, apperrors.Storage(err)
	}
	return comments, nil
}

// UpdateComment edits a comment's content. Only the author may edit.
func (s *CommentService) UpdateComment(commentID, userID uuid.UUID, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.Validation("comment content cannot be empty")
	}

	comment, err := s.loadComment(commentID, userID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != userID {
		return nil, apperrors.Forbidden("only the author can edit a comment")
	}

	comment.Content = content
	comment.Mentions = extractMentions(content)
	if err := s.db.Save(comment).Error; err != nil {
		return nil, apperrors.Storage(err)
	}
	return comment, nil
}

// DeleteComment removes a comment. Only the author may delete, and root
// comments with replies are rejected.
func (s *CommentService) DeleteComment(commentID, userID uuid.UUID) error {
	comment, err := s.loadComment(commentID, userID)
	if err != nil {
		return err
	}
	if comment.AuthorID != userID {
		return apperrors.Forbidden("only the author can delete a comment")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var replyCount int64
		if err := tx.Model(&models.Comment{}).Where("parent_id = ?", commentID).
			Count(&replyCount).Error; err != nil {
			return err
		}
		if replyCount > 0 {
			return apperrors.Validation("cannot delete a comment that has replies")
		}
		return tx.Delete(&models.Comment{}, "id = ?", commentID).Error
	})
	if err != nil {
		if apperrors.KindOf(err) != apperrors.KindUnknown {
			return err
		}
		return apperrors.Storage(err)
	}
	return nil
}

// loadComment fetches a comment and verifies the caller can see its task.
func (s *CommentService) loadComment(commentID, userID uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.First(&comment, "id = ?", commentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("comment", commentID)
		}
		return nil, apperrors.Storage(err)
	}

	if _, _, err := s.guard.ResolveTask(comment.TaskID, userID); err != nil {
		return nil, err
	}
	return &comment, nil
}
