package service

import (
	"strings"

	"coinhub/internal/idgen"
	"coinhub/internal/model"
	"coinhub/internal/store"
)

// TaskService handles the shared task board.
type TaskService struct {
	base
}

// NewTaskService creates a new TaskService instance.
func NewTaskService(st *store.Store, clock Clock) *TaskService {
	return &TaskService{base: newBase(st, clock)}
}

// Complete consumes a task for the actor. The first account to complete a task
// removes it from the board for everyone.
func (s *TaskService) Complete(actorName, taskID string) (store.Slice, error) {
	actor, err := s.actor(actorName)
	if err != nil {
		return store.SliceNone, err
	}
	task, ok := s.st.Task(taskID)
	if !ok {
		return store.SliceNone, Reject(CodeNotFound, "task %q not found", taskID)
	}
	if !task.Type.Allows(actor.VIP) {
		return store.SliceNone, Reject(CodeTierLocked, "task %q requires tier %s", taskID, task.Type)
	}

	reward := task.Reward
	if !canCredit(actor.Coins, reward) || !canCredit(actor.EarnedToday, reward) {
		return store.SliceNone, ErrBalanceLimit
	}
	s.st.RemoveTask(taskID)

	s.touch(actor)
	actor.Coins += reward
	actor.EarnedToday += reward
	actor.Experience += taskExperience
	actor.TotalTasksCompleted++
	if !actor.HasCompleted(taskID) {
		actor.CompletedTasks = append(actor.CompletedTasks, taskID)
	}

	return store.SliceTasks | store.SliceAccounts, nil
}

// Add appends a task to the board. Only administrators may add tasks.
func (s *TaskService) Add(actorName, name string, reward int64, tier model.TaskTier, link string) (store.Slice, error) {
	actor, err := s.actor(actorName)
	if err != nil {
		return store.SliceNone, err
	}
	if !actor.IsAdmin() {
		return store.SliceNone, ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return store.SliceNone, Reject(CodeInvalidPayload, "task name is required")
	}
	if reward <= 0 || reward > MaxBalance {
		return store.SliceNone, Reject(CodeInvalidAmount, "reward must be between 1 and %d", MaxBalance)
	}
	if tier == "" {
		tier = model.TaskNormal
	}
	if !tier.Valid() {
		return store.SliceNone, Reject(CodeInvalidPayload, "unknown task tier %q", tier)
	}

	s.st.AddTask(&model.Task{
		ID:     idgen.New(),
		Name:   name,
		Reward: reward,
		Type:   tier,
		Link:   strings.TrimSpace(link),
	})
	return store.SliceTasks, nil
}
