// Package mapper converts between domain models and transport DTOs.
package mapper

import (
	"fmt"
	"strings"
	"time"

	"group-task-tracker/internal/entities"
	"group-task-tracker/internal/transport/http/dto"
)

const dateLayout = "2006-01-02"

// ParseTime accepts RFC 3339 timestamps and plain dates (midnight UTC).
func ParseTime(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", entities.ErrInvalidArgument, field)
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: %s must be RFC 3339 or YYYY-MM-DD", entities.ErrInvalidArgument, field)
}

// ToGroup maps entities.Group to transport model.
func ToGroup(g entities.Group) dto.Group {
	return dto.Group{ID: g.ID, Name: g.Name, CreatedBy: g.CreatedBy, CreatedAt: g.CreatedAt}
}

// FromAddMember builds an entities.Member from transport DTO.
func FromAddMember(groupID string, src dto.AddMemberRequest) entities.Member {
	return entities.Member{
		GroupID:     groupID,
		UserID:      src.UserID,
		DisplayName: src.DisplayName,
		Role:        entities.MemberRole(src.Role),
	}
}

// ToMember maps entities.Member to transport model.
func ToMember(m entities.Member) dto.Member {
	return dto.Member{
		GroupID:     m.GroupID,
		UserID:      m.UserID,
		DisplayName: m.DisplayName,
		Role:        string(m.Role),
		JoinedAt:    m.JoinedAt,
	}
}

// ToMembers maps a member list.
func ToMembers(ms []entities.Member) []dto.Member {
	res := make([]dto.Member, 0, len(ms))
	for _, m := range ms {
		res = append(res, ToMember(m))
	}
	return res
}

// FromCreateTask builds an entities.Task from transport DTO.
func FromCreateTask(groupID string, src dto.CreateTaskRequest) (entities.Task, error) {
	due, err := ParseTime("dueDate", src.DueDate)
	if err != nil {
		return entities.Task{}, err
	}
	return entities.Task{
		GroupID:        groupID,
		Name:           src.Name,
		Description:    src.Description,
		Difficulty:     src.Difficulty,
		DueDate:        due,
		AssignedUserID: strings.TrimSpace(src.AssignedUserID),
	}, nil
}

// ToTask maps entities.Task to transport model.
func ToTask(t entities.Task) dto.Task {
	res := dto.Task{
		ID:          t.ID,
		GroupID:     t.GroupID,
		Name:        t.Name,
		Description: t.Description,
		Difficulty:  t.Difficulty,
		Status:      string(t.Status),
		DueDate:     t.DueDate,
		CreatedBy:   t.CreatedBy,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.IsAssigned() {
		assignee := t.AssignedUserID
		res.AssignedUserID = &assignee
	}
	return res
}

// ToTasks maps a task list.
func ToTasks(ts []entities.Task) []dto.Task {
	res := make([]dto.Task, 0, len(ts))
	for _, t := range ts {
		res = append(res, ToTask(t))
	}
	return res
}

// ToHistory maps task history entries.
func ToHistory(hs []entities.TaskHistory) []dto.TaskHistoryEntry {
	res := make([]dto.TaskHistoryEntry, 0, len(hs))
	for _, h := range hs {
		res = append(res, dto.TaskHistoryEntry{
			ID:                 h.ID,
			Action:             string(h.Action),
			PreviousAssigneeID: h.PreviousAssigneeID,
			NewAssigneeID:      h.NewAssigneeID,
			PreviousStatus:     string(h.PreviousStatus),
			NewStatus:          string(h.NewStatus),
			ChangedBy:          h.ChangedBy,
			ChangedAt:          h.ChangedAt,
			Note:               h.Note,
		})
	}
	return res
}

// ToWorkload maps entities.WorkloadMetrics to transport model.
func ToWorkload(m entities.WorkloadMetrics) dto.WorkloadMetrics {
	users := make([]dto.UserWorkload, 0, len(m.Users))
	for _, u := range m.Users {
		users = append(users, dto.UserWorkload{
			UserID:          u.UserID,
			DisplayName:     u.DisplayName,
			TaskCount:       u.TaskCount,
			TotalDifficulty: u.TotalDifficulty,
			Percentage:      u.Percentage,
		})
	}
	return dto.WorkloadMetrics{
		GroupID:                  m.GroupID,
		Range:                    string(m.Range),
		MemberCount:              m.MemberCount,
		TotalTasks:               m.TotalTasks,
		TotalDifficulty:          m.TotalDifficulty,
		AverageDifficultyPerUser: m.AverageDifficultyPerUser,
		MinDifficulty:            m.MinDifficulty,
		MaxDifficulty:            m.MaxDifficulty,
		VariancePercent:          m.VariancePercent,
		ThresholdColor:           string(m.ThresholdColor),
		Users:                    users,
	}
}

// FromGenerate builds an entities.GenerateRequest from transport DTO.
func FromGenerate(src dto.GenerateRequest) (entities.GenerateRequest, error) {
	start, err := ParseTime("startDate", src.StartDate)
	if err != nil {
		return entities.GenerateRequest{}, err
	}
	end, err := ParseTime("endDate", src.EndDate)
	if err != nil {
		return entities.GenerateRequest{}, err
	}
	method, err := entities.ParseDistributionMethod(src.Method)
	if err != nil {
		return entities.GenerateRequest{}, err
	}
	return entities.GenerateRequest{
		GroupID:   strings.TrimSpace(src.GroupID),
		StartDate: start,
		EndDate:   end,
		UserIDs:   src.UserIDs,
		Method:    method,
		Reassign:  src.Reassign,
	}, nil
}

// ToPreview maps entities.DistributionPreview to transport model.
func ToPreview(p entities.DistributionPreview) dto.DistributionPreview {
	assignments := make([]dto.AssignmentRecord, 0, len(p.Assignments))
	for _, a := range p.Assignments {
		assignments = append(assignments, dto.AssignmentRecord{
			TaskID:           a.TaskID,
			TaskName:         a.TaskName,
			AssignedUserID:   a.AssignedUserID,
			AssignedUserName: a.AssignedUserName,
			Confidence:       a.Confidence,
			Rationale:        a.Rationale,
		})
	}
	perUser := make(map[string]int, len(p.Stats.TasksPerUser))
	for userID, n := range p.Stats.TasksPerUser {
		perUser[userID] = n
	}
	return dto.DistributionPreview{
		ID:          p.ID,
		GroupID:     p.GroupID,
		Status:      string(p.Status),
		Method:      string(p.Method),
		Assignments: assignments,
		Stats: dto.DistributionStats{
			TotalTasks:       p.Stats.TotalTasks,
			TotalUsers:       p.Stats.TotalUsers,
			WorkloadVariance: p.Stats.WorkloadVariance,
			TasksPerUser:     perUser,
		},
		Error:     p.Error,
		CreatedAt: p.CreatedAt,
		ExpiresAt: p.ExpiresAt,
	}
}

// FromModifications maps apply overrides.
func FromModifications(src []dto.Modification) []entities.Modification {
	res := make([]entities.Modification, 0, len(src))
	for _, m := range src {
		res = append(res, entities.Modification{TaskID: m.TaskID, NewAssignedUserID: m.NewAssignedUserID})
	}
	return res
}

// ToApplyResult maps entities.ApplyResult to transport model.
func ToApplyResult(r entities.ApplyResult) dto.ApplyResponse {
	return dto.ApplyResponse{
		AssignedCount: r.AssignedCount,
		ModifiedCount: r.ModifiedCount,
		FinalStats:    ToWorkload(r.FinalStats),
	}
}
