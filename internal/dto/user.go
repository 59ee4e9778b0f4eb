package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/hayashide/project-management-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Avatar    string    `json:"avatar,omitempty"`
}

// MemberDTO represents a project membership in API responses
type MemberDTO struct {
	UserID   uuid.UUID          `json:"user_id"`
	Role     models.ProjectRole `json:"role"`
	JoinedAt time.Time          `json:"joined_at"`
	User     *UserDTO           `json:"user,omitempty"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Avatar:    user.Avatar,
	}
}

// ToMemberDTO converts a ProjectMember model to MemberDTO
func ToMemberDTO(member models.ProjectMember) MemberDTO {
	dto := MemberDTO{
		UserID:   member.UserID,
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
	if member.User.ID != uuid.Nil {
		user := ToUserDTO(member.User)
		dto.User = &user
	}
	return dto
}
