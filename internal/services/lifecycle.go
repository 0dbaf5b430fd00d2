package services

import (
	"fmt"
	"strings"

	"github.com/nirmaan-tracker/nirmaan-api/internal/models"
)

// transitions lists, for each status, the statuses an edit may move a task to.
// Every move is allowed today; tightening the policy means editing this table.
var transitions = func() map[models.TaskStatus]map[models.TaskStatus]bool {
	table := make(map[models.TaskStatus]map[models.TaskStatus]bool, len(models.TaskStatuses))
	for _, from := range models.TaskStatuses {
		table[from] = make(map[models.TaskStatus]bool, len(models.TaskStatuses))
		for _, to := range models.TaskStatuses {
			table[from][to] = true
		}
	}
	return table
}()

// CanTransition reports whether a task may move from one status to another.
func CanTransition(from, to models.TaskStatus) bool {
	if from == to {
		return true
	}
	return transitions[from][to]
}

// Relations a blocking task can have to the record being removed.
const (
	RelationSelf        = "self"
	RelationAssignedTo  = "assigned_to"
	RelationAssignedBy  = "assigned_by"
	RelationRelatedLead = "related_lead"
)

// BlockingTask describes one pending task that prevents a delete or deactivation.
type BlockingTask struct {
	TaskID          uint64            `json:"task_id"`
	TaskNumber      string            `json:"task_number"`
	TaskName        string            `json:"task_name"`
	Status          models.TaskStatus `json:"status"`
	Relation        string            `json:"relation"`
	CounterpartID   uint64            `json:"counterpart_id"`
	CounterpartName string            `json:"counterpart_name"`
	Summary         string            `json:"summary"`
}

// DependencyError is returned when pending tasks still reference a record.
type DependencyError struct {
	Resource string
	ID       uint64
	Blocking []BlockingTask
}

func (e *DependencyError) Error() string {
	names := make([]string, len(e.Blocking))
	for i, b := range e.Blocking {
		names[i] = b.Summary
	}
	return fmt.Sprintf("%s %d has %d pending task(s): %s", e.Resource, e.ID, len(e.Blocking), strings.Join(names, "; "))
}

// TaskGuard blocks removal of a task that is still pending.
func TaskGuard(task models.Task) *DependencyError {
	if task.Status.Terminal() {
		return nil
	}
	return &DependencyError{
		Resource: "task",
		ID:       task.ID,
		Blocking: []BlockingTask{blocking(task, RelationSelf, task.AssignTo, task.Assignee)},
	}
}

// UserGuard blocks deletion or deactivation of a user who is a party to pending tasks.
func UserGuard(userID uint64, tasks []models.Task) *DependencyError {
	var items []BlockingTask
	for _, t := range tasks {
		if t.Status.Terminal() {
			continue
		}
		switch {
		case t.AssignTo == userID:
			items = append(items, blocking(t, RelationAssignedTo, t.AssignBy, t.Assigner))
		case t.AssignBy == userID:
			items = append(items, blocking(t, RelationAssignedBy, t.AssignTo, t.Assignee))
		}
	}
	if len(items) == 0 {
		return nil
	}
	return &DependencyError{Resource: "user", ID: userID, Blocking: items}
}

// LeadGuard blocks deletion of a lead that pending tasks relate to.
func LeadGuard(leadID uint64, tasks []models.Task) *DependencyError {
	var items []BlockingTask
	for _, t := range tasks {
		if t.Status.Terminal() || t.LeadID == nil || *t.LeadID != leadID {
			continue
		}
		items = append(items, blocking(t, RelationRelatedLead, t.AssignTo, t.Assignee))
	}
	if len(items) == 0 {
		return nil
	}
	return &DependencyError{Resource: "lead", ID: leadID, Blocking: items}
}

func blocking(t models.Task, relation string, counterpartID uint64, counterpart models.User) BlockingTask {
	name := counterpart.DisplayName()
	if counterpart.ID == 0 {
		name = fmt.Sprintf("user #%d", counterpartID)
	}

	var summary string
	switch relation {
	case RelationAssignedTo:
		summary = fmt.Sprintf("%q assigned by %s", t.Name, name)
	default:
		summary = fmt.Sprintf("%q assigned to %s", t.Name, name)
	}

	return BlockingTask{
		TaskID:          t.ID,
		TaskNumber:      t.TaskNumber,
		TaskName:        t.Name,
		Status:          t.Status,
		Relation:        relation,
		CounterpartID:   counterpartID,
		CounterpartName: name,
		Summary:         summary,
	}
}
