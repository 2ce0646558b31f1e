package services

import (
	"context"
	"errors"
	"time"

	"github.com/yukikurage/ensemble/internal/models"
	"github.com/yukikurage/ensemble/internal/recurrence"
	"github.com/yukikurage/ensemble/internal/series"
	"github.com/yukikurage/ensemble/pkg/logger"
)

func (s *ServiceTestSuite) createChore(title string, rec models.Recurrence, due *time.Time, assignees ...string) *models.Task {
	task, _, err := s.taskService().CreateTask(s.alice, CreateTaskInput{
		Title:       title,
		Recurrence:  rec,
		DueDate:     due,
		AssigneeIDs: assignees,
	})
	s.Require().NoError(err)
	return task
}

func (s *ServiceTestSuite) reloadTask(id string) *models.Task {
	task, err := s.tasks.FindByID(id)
	s.Require().NoError(err)
	return task
}

func (s *ServiceTestSuite) TestCreateTask_NotifiesAssignees() {
	task, events, err := s.taskService().CreateTask(s.alice, CreateTaskInput{
		Title:       "Take out the bins",
		Emoji:       strPtr("🗑️"),
		AssigneeIDs: []string{s.alice.Member.ID, s.bob.Member.ID, s.kid.ID},
	})
	s.Require().NoError(err)

	stored := s.reloadTask(task.ID)
	s.Equal(models.TaskStatusTodo, stored.Status)
	s.Equal(models.RecurrenceNone, stored.Recurrence)
	s.Equal(models.VisibilityHousehold, stored.Visibility)
	s.Equal(int64(3), s.countRows(&models.TaskAssignee{}, "task_id = ?", task.ID))

	assigned := s.single(events, models.NotificationTaskAssigned)
	s.Equal([]string{s.bob.UserID}, assigned.Recipients)
	s.Equal(task.ID, assigned.ResourceID)
}

func (s *ServiceTestSuite) TestCreateTask_RejectsForeignAssignee() {
	_, _, err := s.taskService().CreateTask(s.alice, CreateTaskInput{Title: "x", AssigneeIDs: []string{"ghost"}})
	var verr *series.ValidationError
	s.Require().True(errors.As(err, &verr))
	s.ErrorIs(err, ErrUnknownMembers)
}

func (s *ServiceTestSuite) TestUpdateTask_DueDateChangeNotifies() {
	due := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)
	task := s.createChore("Water the plants", models.RecurrenceNone, &due, s.bob.Member.ID)

	_, events, err := s.taskService().UpdateTask(s.alice, task.ID, UpdateTaskInput{Title: strPtr("Water all plants")})
	s.Require().NoError(err)
	s.Empty(events)

	newDue := due.AddDate(0, 0, 2)
	newAssignees := []string{s.bob.Member.ID, s.kid.ID}
	updated, events, err := s.taskService().UpdateTask(s.alice, task.ID, UpdateTaskInput{DueDate: &newDue, AssigneeIDs: &newAssignees})
	s.Require().NoError(err)
	s.Equal("Water all plants", updated.Title)
	s.Equal(int64(2), s.countRows(&models.TaskAssignee{}, "task_id = ?", task.ID))

	changed := s.single(events, models.NotificationTaskUpdated)
	s.Equal([]string{s.bob.UserID}, changed.Recipients)
	s.True(newDue.Equal(*changed.NewTime))

	_, events, err = s.taskService().UpdateTask(s.alice, task.ID, UpdateTaskInput{ClearDueDate: true})
	s.Require().NoError(err)
	s.Len(events, 1)
	s.Nil(s.reloadTask(task.ID).DueDate)
}

func (s *ServiceTestSuite) TestToggleTask_NonRecurringCompletes() {
	task := s.createChore("Book the dentist", models.RecurrenceNone, nil)

	toggled, events, err := s.taskService().ToggleTask(s.bob, task.ID, models.TaskStatusTodo)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusDone, toggled.Status)

	stored := s.reloadTask(task.ID)
	s.Equal(models.TaskStatusDone, stored.Status)
	s.Require().NotNil(stored.CompletedAt)
	s.True(s.now.Equal(*stored.CompletedAt))
	s.Require().NotNil(stored.CompletedBy)
	s.Equal(s.bob.Member.ID, *stored.CompletedBy)

	completed := s.single(events, models.NotificationTaskCompleted)
	s.Equal([]string{s.alice.UserID}, completed.Recipients)
	s.Equal("Bob", completed.ActorName)

	s.Equal(float64(1), s.counterValue("ensemble_task_toggles_total", map[string]string{"result": "done"}))
}

func (s *ServiceTestSuite) TestToggleTask_RecurringRollsOver() {
	due := time.Date(2025, 5, 7, 0, 0, 0, 0, time.UTC)
	task := s.createChore("Laundry", models.RecurrenceWeekly, &due)

	_, events, err := s.taskService().ToggleTask(s.bob, task.ID, models.TaskStatusTodo)
	s.Require().NoError(err)
	s.Empty(events)

	stored := s.reloadTask(task.ID)
	s.Equal(models.TaskStatusTodo, stored.Status)
	s.Require().NotNil(stored.DueDate)
	s.True(time.Date(2025, 5, 14, 0, 0, 0, 0, time.UTC).Equal(*stored.DueDate))
	s.Require().NotNil(stored.CompletedAt)
	s.Equal(s.bob.Member.ID, *stored.CompletedBy)

	s.Equal(float64(1), s.counterValue("ensemble_task_toggles_total", map[string]string{"result": "rolled_over"}))
}

func (s *ServiceTestSuite) TestToggleTask_MonthlyFromJanuary31() {
	due := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	task := s.createChore("Pay rent", models.RecurrenceMonthly, &due)

	_, _, err := s.taskService().ToggleTask(s.alice, task.ID, models.TaskStatusTodo)
	s.Require().NoError(err)
	s.True(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC).Equal(*s.reloadTask(task.ID).DueDate))
}

func (s *ServiceTestSuite) TestToggleTask_UncompleteClearsMetadata() {
	task := s.createChore("Fix the tap", models.RecurrenceNone, nil)
	_, _, err := s.taskService().ToggleTask(s.alice, task.ID, "")
	s.Require().NoError(err)

	_, events, err := s.taskService().ToggleTask(s.alice, task.ID, models.TaskStatusDone)
	s.Require().NoError(err)
	s.Empty(events)

	stored := s.reloadTask(task.ID)
	s.Equal(models.TaskStatusTodo, stored.Status)
	s.Nil(stored.CompletedAt)
	s.Nil(stored.CompletedBy)
}

func (s *ServiceTestSuite) TestToggleTask_ArchivedRejected() {
	task := s.createChore("Old chore", models.RecurrenceNone, nil)
	s.Require().NoError(s.db.Model(&models.Task{}).Where("id = ?", task.ID).Update("status", models.TaskStatusArchived).Error)

	_, _, err := s.taskService().ToggleTask(s.alice, task.ID, models.TaskStatusTodo)
	s.ErrorIs(err, recurrence.ErrTaskArchived)
}

func (s *ServiceTestSuite) TestListTasks_AssignedToMeAndVisibility() {
	s.createChore("Shared", models.RecurrenceNone, nil, s.kid.ID)
	mine := s.createChore("Mine", models.RecurrenceNone, nil, s.bob.Member.ID)
	_, _, err := s.taskService().CreateTask(s.alice, CreateTaskInput{
		Title:       "Private",
		Visibility:  models.VisibilityParticipants,
		AssigneeIDs: []string{s.alice.Member.ID},
	})
	s.Require().NoError(err)

	tasks, total, err := s.taskService().ListTasks(s.bob, ListTasksInput{AssignedToMe: true})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(mine.ID, tasks[0].ID)

	_, total, err = s.taskService().ListTasks(s.bob, ListTasksInput{})
	s.Require().NoError(err)
	s.Equal(int64(2), total)

	_, total, err = s.taskService().ListTasks(s.alice, ListTasksInput{})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
}

func (s *ServiceTestSuite) TestDeleteTask() {
	task := s.createChore("Gone", models.RecurrenceNone, nil, s.bob.Member.ID)
	s.Require().NoError(s.taskService().DeleteTask(s.bob, task.ID))

	_, err := s.taskService().GetTask(s.alice, task.ID)
	s.ErrorIs(err, ErrTaskNotFound)
}

func (s *ServiceTestSuite) TestGenerateTasks_WithoutAI() {
	_, err := s.taskService().GenerateTasks(context.Background(), "buy milk tomorrow")
	s.ErrorIs(err, ErrAIServiceNotConfigured)
}

func (s *ServiceTestSuite) TestArchiver() {
	task := s.createChore("Done long ago", models.RecurrenceNone, nil)
	_, _, err := s.taskService().ToggleTask(s.alice, task.ID, models.TaskStatusTodo)
	s.Require().NoError(err)
	recent := s.createChore("Done today", models.RecurrenceNone, nil)

	archiver := NewArchiver(s.tasks, 30*24*time.Hour, s.metrics, logger.Discard()).WithClock(func() time.Time {
		return s.now.AddDate(0, 0, 31)
	})
	_, _, err = s.taskService().WithClock(func() time.Time { return s.now.AddDate(0, 0, 30) }).ToggleTask(s.alice, recent.ID, models.TaskStatusTodo)
	s.Require().NoError(err)

	archived, err := archiver.RunOnce()
	s.Require().NoError(err)
	s.Equal(int64(1), archived)
	s.Equal(models.TaskStatusArchived, s.reloadTask(task.ID).Status)
	s.Equal(models.TaskStatusDone, s.reloadTask(recent.ID).Status)
	s.Equal(float64(1), s.counterValue("ensemble_tasks_archived_total", nil))
}

func (s *ServiceTestSuite) TestArchiver_RejectsBadSchedule() {
	archiver := NewArchiver(s.tasks, time.Hour, nil, logger.Discard())
	s.Error(archiver.Start("every full moon"))
}
