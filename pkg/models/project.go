package models

import (
	"time"

	"github.com/google/uuid"
)

// MemberRoleOwner is the membership role given to a project's creator.
const MemberRoleOwner = "owner"

// MemberRoleDefault is used when a member is added without an explicit role.
const MemberRoleDefault = "member"

// Project groups tasks under a creator and its members.
type Project struct {
	ID          uuid.UUID     `json:"id"`
	Name        string        `json:"name"`
	Description *string       `json:"description"`
	StartDate   time.Time     `json:"startDate"`
	EndDate     *time.Time    `json:"endDate"`
	Status      ProjectStatus `json:"status"`
	CreatorID   uuid.UUID     `json:"creatorId"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`

	Creator     *UserSummary `json:"creator,omitempty"`
	TaskCount   int          `json:"taskCount"`
	MemberCount int          `json:"memberCount"`
}

// ProjectSummary is the compact project shape embedded in tasks.
type ProjectSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ProjectMember grants a user access to a project. (ProjectID, UserID) is unique.
type ProjectMember struct {
	ID        uuid.UUID    `json:"id"`
	ProjectID uuid.UUID    `json:"projectId"`
	UserID    uuid.UUID    `json:"userId"`
	Role      string       `json:"role"`
	JoinedAt  time.Time    `json:"joinedAt"`
	User      *UserSummary `json:"user,omitempty"`
}

// ProjectDetail is a project together with its members and tasks.
type ProjectDetail struct {
	Project
	Members []*ProjectMember `json:"members"`
	Tasks   []*Task          `json:"tasks"`
}

// ProjectFilter narrows project listings.
type ProjectFilter struct {
	Status    *ProjectStatus
	CreatorID *uuid.UUID
}

// ProjectUpdate carries optional project changes. Nil fields are left untouched.
type ProjectUpdate struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *ProjectStatus
}

// ProjectStats summarizes progress inside one project.
type ProjectStats struct {
	TotalTasks     int     `json:"totalTasks"`
	CompletedTasks int     `json:"completedTasks"`
	OverdueTasks   int     `json:"overdueTasks"`
	TotalMembers   int     `json:"totalMembers"`
	CompletionRate float64 `json:"completionRate"`
}
