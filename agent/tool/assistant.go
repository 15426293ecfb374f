package tool

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/mail"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
	storex "github.com/tanpawarit/agentic-services/agent/store"
)

const defaultSenderName = "Personal Assistant"

func (k *toolkit) assistantTools() []*Tool {
	filters := make([]string, 0, len(storex.TaskFilters))
	for _, f := range storex.TaskFilters {
		filters = append(filters, string(f))
	}

	return []*Tool{
		{
			Name: ToolFetchTasks,
			Desc: "Fetch the current user's tasks. Always call this before answering questions about tasks or before changing a task, so you know its id and status.",
			Params: map[string]*schema.ParameterInfo{
				"filter": {Type: schema.String, Desc: "'all' returns everything, others filter by status, priority or due date", Enum: filters, Required: true},
			},
			RequiresAuth: true,
			Handler:      k.fetchTasks,
		},
		{
			Name: ToolManageTask,
			Desc: "Create, edit, delete, mark complete, or archive a task. Every change is written to the audit log.",
			Params: map[string]*schema.ParameterInfo{
				"action":      {Type: schema.String, Desc: "Action to perform on a task", Enum: []string{"create", "edit", "delete", "complete", "archive"}, Required: true},
				"task_id":     {Type: schema.String, Desc: "Id of the task for edit/delete/complete/archive. Use empty string '' for create.", Required: true},
				"title":       {Type: schema.String, Desc: "Task title. Required for create. Use empty string '' when not changing on edit.", Required: true},
				"description": {Type: schema.String, Desc: "Task description. Use empty string '' if not applicable.", Required: true},
				"priority":    {Type: schema.String, Desc: "Task priority level", Enum: []string{"low", "medium", "high", "urgent"}, Required: true},
				"due_at":      {Type: schema.String, Desc: "Due date/time in ISO 8601 format, e.g. '2026-02-25T17:00:00Z'. Use empty string '' if none.", Required: true},
			},
			RequiresAuth: true,
			Handler:      k.manageTask,
		},
		{
			Name: ToolSendEmail,
			Desc: "Send an email on behalf of the user. Use only when the user explicitly asks to send an email and has confirmed the recipient, subject and body.",
			Params: map[string]*schema.ParameterInfo{
				"to":      {Type: schema.String, Desc: "Recipient email address", Required: true},
				"subject": {Type: schema.String, Desc: "Email subject line", Required: true},
				"body":    {Type: schema.String, Desc: "Email body, plain text or basic HTML", Required: true},
			},
			Handler: k.sendEmail,
		},
	}
}

func isOverdue(t storex.Task, now time.Time) bool {
	return t.DueAt != nil && t.DueAt.Before(now) &&
		t.Status != storex.TaskStatusCompleted && t.Status != storex.TaskStatusArchived
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func taskPayload(t storex.Task, now time.Time) map[string]any {
	return map[string]any{
		"id":           t.ID,
		"title":        t.Title,
		"description":  t.Description,
		"status":       t.Status,
		"priority":     t.Priority,
		"due_at":       timeOrNil(t.DueAt),
		"completed_at": timeOrNil(t.CompletedAt),
		"overdue":      isOverdue(t, now),
	}
}

func (k *toolkit) fetchTasks(ctx context.Context, actx contractx.AgentContext, args Args) contractx.ToolResult {
	filter := storex.TaskFilter(args.String("filter"))
	now := k.now().UTC()

	tasks, err := k.store.ListTasks(ctx, actx.User(), filter, now)
	if err != nil {
		log.Warn().Err(err).Str("tool", ToolFetchTasks).Str("user_id", actx.User()).Msg("list tasks failed")
		return FailWith(ToolFetchTasks, "Could not load your tasks right now.", map[string]any{"tasks": []any{}})
	}

	out := make([]map[string]any, 0, len(tasks))
	counts := map[string]int{}
	overdue := 0
	for _, t := range tasks {
		out = append(out, taskPayload(t, now))
		counts[t.Status]++
		if isOverdue(t, now) {
			overdue++
		}
	}
	return Ok(ToolFetchTasks, fmt.Sprintf("Found %d task(s) for filter '%s'.", len(out), filter), map[string]any{
		"tasks": out,
		"summary": map[string]any{
			"total":       len(out),
			"todo":        counts[storex.TaskStatusTodo],
			"in_progress": counts[storex.TaskStatusInProgress],
			"completed":   counts[storex.TaskStatusCompleted],
			"overdue":     overdue,
		},
	})
}

// transitionError is a rejected task state change; its text goes to the model.
type transitionError string

func (e transitionError) Error() string { return string(e) }

func parseDueAt(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("due_at %q is not an ISO 8601 date", raw)
}

func (k *toolkit) manageTask(ctx context.Context, actx contractx.AgentContext, args Args) contractx.ToolResult {
	dueAt, err := parseDueAt(args.String("due_at"))
	if err != nil {
		return Fail(ToolManageTask, "due_at must be an ISO 8601 date, e.g. 2026-02-25T17:00:00Z.")
	}

	action := args.String("action")
	if action == "create" {
		return k.createTask(ctx, actx.User(), args, dueAt)
	}

	taskID := args.String("task_id")
	if taskID == "" {
		return Fail(ToolManageTask, "task_id is required for this action.")
	}

	var (
		before *storex.Task
		after  *storex.Task
		msg    string
	)
	err = k.store.RunInTx(ctx, func(ctx context.Context, tx storex.Store) error {
		current, err := tx.GetTask(ctx, actx.User(), taskID)
		if err != nil {
			return err
		}
		snapshot := *current
		before = &snapshot

		entry := &storex.AuditEntry{UserID: actx.User(), TaskID: taskID, PreviousState: before.Snapshot()}
		now := k.now().UTC()

		switch action {
		case "edit":
			if t := args.String("title"); t != "" {
				current.Title = t
			}
			if d := args.String("description"); d != "" {
				current.Description = d
			}
			current.Priority = args.String("priority")
			if dueAt != nil {
				current.DueAt = dueAt
			}
			entry.ActionType = storex.AuditActionEdited
			msg = "Task updated."
		case "complete":
			switch current.Status {
			case storex.TaskStatusCompleted:
				return transitionError("Task is already completed.")
			case storex.TaskStatusArchived:
				return transitionError("Archived tasks cannot be completed.")
			}
			current.Status = storex.TaskStatusCompleted
			current.CompletedAt = &now
			entry.ActionType = storex.AuditActionStatusChange
			msg = fmt.Sprintf("Task %q marked as complete!", current.Title)
		case "archive":
			if current.Status == storex.TaskStatusArchived {
				return transitionError("Task is already archived.")
			}
			current.Status = storex.TaskStatusArchived
			entry.ActionType = storex.AuditActionStatusChange
			msg = fmt.Sprintf("Task %q archived.", current.Title)
		case "delete":
			entry.ActionType = storex.AuditActionDeleted
			if err := tx.CreateAuditLogEntry(ctx, entry); err != nil {
				return err
			}
			msg = fmt.Sprintf("Task %q deleted permanently.", current.Title)
			return tx.DeleteTask(ctx, actx.User(), taskID)
		default:
			return transitionError("Unknown action.")
		}

		if err := tx.UpdateTask(ctx, current); err != nil {
			return err
		}
		after = current
		entry.NewState = current.Snapshot()
		return tx.CreateAuditLogEntry(ctx, entry)
	})

	var rejected transitionError
	switch {
	case errors.Is(err, storex.ErrNotFound) && before == nil:
		return Fail(ToolManageTask, "Task not found or access denied.")
	case errors.As(err, &rejected):
		return Fail(ToolManageTask, rejected.Error())
	case err != nil:
		log.Warn().Err(err).Str("tool", ToolManageTask).Str("action", action).Str("user_id", actx.User()).Msg("manage task failed")
		return Fail(ToolManageTask, fmt.Sprintf("Failed to %s task.", action))
	}

	if after == nil {
		return Ok(ToolManageTask, msg, map[string]any{"task_id": taskID})
	}
	return Ok(ToolManageTask, msg, map[string]any{"task": taskPayload(*after, k.now().UTC())})
}

func (k *toolkit) createTask(ctx context.Context, userID string, args Args, dueAt *time.Time) contractx.ToolResult {
	title := args.String("title")
	if title == "" {
		return Fail(ToolManageTask, "Title is required to create a task.")
	}

	task := &storex.Task{
		UserID:      userID,
		Title:       title,
		Description: args.String("description"),
		Status:      storex.TaskStatusTodo,
		Priority:    args.String("priority"),
		DueAt:       dueAt,
	}
	err := k.store.RunInTx(ctx, func(ctx context.Context, tx storex.Store) error {
		if err := tx.CreateTask(ctx, task); err != nil {
			return err
		}
		return tx.CreateAuditLogEntry(ctx, &storex.AuditEntry{
			UserID:     userID,
			TaskID:     task.ID,
			ActionType: storex.AuditActionCreated,
			NewState:   task.Snapshot(),
		})
	})
	if err != nil {
		log.Warn().Err(err).Str("tool", ToolManageTask).Str("user_id", userID).Msg("create task failed")
		return Fail(ToolManageTask, "Failed to create task.")
	}
	return Ok(ToolManageTask, fmt.Sprintf("Task %q created.", task.Title), map[string]any{
		"task": taskPayload(*task, k.now().UTC()),
	})
}

func (k *toolkit) sendEmail(ctx context.Context, actx contractx.AgentContext, args Args) contractx.ToolResult {
	if k.mailer == nil || !k.mailer.Configured() {
		return Fail(ToolSendEmail, "Email is not configured. Please set MAIL_USERNAME and MAIL_PASSWORD environment variables.")
	}

	to := args.String("to")
	if _, err := mail.ParseAddress(to); err != nil {
		return Fail(ToolSendEmail, fmt.Sprintf("%q is not a valid email address.", to))
	}
	subject := args.String("subject")
	body := args.String("body")

	sender := defaultSenderName
	if actx.Authenticated() {
		if u, err := k.store.GetUserByID(ctx, actx.User()); err == nil {
			if name := u.DisplayName(); name != "" {
				sender = name
			}
		}
	}

	htmlBody := body
	if !strings.Contains(body, "<") {
		htmlBody = strings.ReplaceAll(html.EscapeString(body), "\n", "<br>")
	}

	id, err := k.mailer.Send(ctx, contractx.Mail{
		FromName: sender,
		To:       to,
		Subject:  subject,
		Text:     body + "\n\nBest regards,\n" + sender,
		HTML:     htmlBody + "<br><br>Best regards,<br><strong>" + html.EscapeString(sender) + "</strong>",
	})
	if err != nil {
		log.Warn().Err(err).Str("tool", ToolSendEmail).Msg("send email failed")
		return Fail(ToolSendEmail, "Failed to send email: "+err.Error())
	}

	return Ok(ToolSendEmail, "Email sent to "+to+".", map[string]any{
		"message_id": id,
		"recipient":  to,
		"subject":    subject,
	})
}
