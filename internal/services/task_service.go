package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/mkravets/todo-api/internal/models"
)

type taskServiceImpl struct {
	logger zerolog.Logger
	db     DB
}

func NewTaskService(
	logger zerolog.Logger,
	db DB,
) TaskService {
	return &taskServiceImpl{
		logger: logger,
		db:     db,
	}
}

func (s *taskServiceImpl) CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error) {
	now := time.Now()
	task := &models.Task{
		OwnerID:     params.OwnerID,
		Title:       params.Title,
		Description: params.Description,
		DueDate:     params.DueDate,
		Completed:   false,
		Tags:        params.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if task.Tags == nil {
		task.Tags = []string{}
	}

	taskUUID, err := uuid.NewV7()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to generate task uuid")
		return nil, err
	}
	task.ID = taskUUID.String()

	const insertTaskQuery = `
INSERT INTO tasks (id,
                   owner_id,
                   title,
                   description,
                   due_date,
                   completed,
                   tags,
                   created_at,
                   updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	_, err = s.db.Exec(
		ctx,
		insertTaskQuery,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		task.DueDate,
		task.Completed,
		task.Tags,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to insert task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("owner_id", task.OwnerID).
		Msg("created task")
	return task, nil
}

func (s *taskServiceImpl) GetTasksByOwner(ctx context.Context, ownerID string, filter TaskFilter) ([]*models.Task, error) {
	query := `
SELECT id,
       title,
       description,
       due_date,
       completed,
       tags,
       created_at,
       updated_at
FROM tasks
WHERE owner_id = $1`
	args := []any{ownerID}

	if filter.CreatedAt != nil {
		args = append(args, *filter.CreatedAt)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if filter.DueDate != nil {
		args = append(args, *filter.DueDate)
		query += fmt.Sprintf(" AND due_date >= $%d", len(args))
	}
	if len(filter.Tags) > 0 {
		args = append(args, filter.Tags)
		query += fmt.Sprintf(" AND tags && $%d", len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to select tasks by owner id")
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*models.Task, 0)
	for rows.Next() {
		task := &models.Task{OwnerID: ownerID}
		err = rows.Scan(
			&task.ID,
			&task.Title,
			&task.Description,
			&task.DueDate,
			&task.Completed,
			&task.Tags,
			&task.CreatedAt,
			&task.UpdatedAt,
		)
		if err != nil {
			s.logger.Error().
				Err(err).
				Msg("failed to scan task")
			return nil, err
		}
		tasks = append(tasks, task)
	}

	err = rows.Err()
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to iterate over rows")
		return nil, err
	}

	s.logger.Debug().
		Int("count", len(tasks)).
		Str("owner_id", ownerID).
		Msg("selected tasks by owner id")
	return tasks, nil
}

func (s *taskServiceImpl) GetTaskByID(ctx context.Context, taskID string) (*models.Task, error) {
	task := &models.Task{ID: taskID}

	const selectTaskByIDQuery = `
SELECT owner_id,
       title,
       description,
       due_date,
       completed,
       tags,
       created_at,
       updated_at
FROM tasks
WHERE id = $1
`
	err := s.db.QueryRow(
		ctx,
		selectTaskByIDQuery,
		task.ID,
	).Scan(
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&task.DueDate,
		&task.Completed,
		&task.Tags,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			s.logger.Error().
				Str("task_id", task.ID).
				Msg("task not found")
			return nil, ErrTaskNotFound
		}

		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to select task by id")
		return nil, err
	}

	s.logger.Debug().
		Str("task_id", task.ID).
		Msg("selected task by id")
	return task, nil
}

func (s *taskServiceImpl) UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error) {
	task, err := s.GetTaskByID(ctx, params.ID)
	if err != nil {
		return nil, err
	}

	if task.OwnerID != params.CallerID {
		s.logger.Error().
			Str("task_id", task.ID).
			Str("owner_id", task.OwnerID).
			Str("caller_id", params.CallerID).
			Msg("caller is not the task owner")
		return nil, ErrTaskAccessDenied
	}

	if params.Title != nil {
		task.Title = *params.Title
	}
	if params.Description != nil {
		task.Description = *params.Description
	}
	if params.DueDate != nil {
		task.DueDate = params.DueDate
	}
	if params.Completed != nil {
		task.Completed = *params.Completed
	}
	if params.Tags != nil {
		task.Tags = params.Tags
	}
	task.UpdatedAt = time.Now()

	const updateTaskQuery = `
UPDATE tasks
SET title = $1,
    description = $2,
    due_date = $3,
    completed = $4,
    tags = $5,
    updated_at = $6
WHERE id = $7
`
	_, err = s.db.Exec(
		ctx,
		updateTaskQuery,
		task.Title,
		task.Description,
		task.DueDate,
		task.Completed,
		task.Tags,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to update task")
		return nil, err
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("owner_id", task.OwnerID).
		Msg("updated task")
	return task, nil
}

func (s *taskServiceImpl) DeleteTask(ctx context.Context, taskID, callerID string) (*models.Task, error) {
	task, err := s.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if task.OwnerID != callerID {
		s.logger.Error().
			Str("task_id", task.ID).
			Str("owner_id", task.OwnerID).
			Str("caller_id", callerID).
			Msg("caller is not the task owner")
		return nil, ErrTaskAccessDenied
	}

	const deleteTaskQuery = `
DELETE FROM tasks
WHERE id = $1
`
	tag, err := s.db.Exec(
		ctx,
		deleteTaskQuery,
		task.ID,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("task_id", task.ID).
			Msg("failed to delete task")
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		s.logger.Error().
			Str("task_id", task.ID).
			Msg("task not found")
		return nil, ErrTaskNotFound
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("owner_id", task.OwnerID).
		Msg("deleted task")
	return task, nil
}
