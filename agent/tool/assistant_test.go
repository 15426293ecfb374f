package tool

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	contractx "github.com/tanpawarit/agentic-services/agent/contract"
	storex "github.com/tanpawarit/agentic-services/agent/store"
)

func taskArgs(action, taskID, title string) map[string]any {
	return map[string]any{
		"action":      action,
		"task_id":     taskID,
		"title":       title,
		"description": "",
		"priority":    "medium",
		"due_at":      "",
	}
}

func TestManageTaskLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	st := newSQLiteStore(t)
	r := newTestCatalog(t, st, nil)
	actx := createUser(t, st, "planner")

	res := call(t, r, contractx.AgentTypeAssistant, actx, ToolManageTask, taskArgs("create", "", "Review budget"))
	if !res.Success {
		t.Fatalf("create = %+v", res)
	}
	taskID := res.Data["task"].(map[string]any)["id"].(string)

	res = call(t, r, contractx.AgentTypeAssistant, actx, ToolManageTask, taskArgs("complete", taskID, ""))
	if !res.Success {
		t.Fatalf("complete = %+v", res)
	}
	res = call(t, r, contractx.AgentTypeAssistant, actx, ToolManageTask, taskArgs("complete", taskID, ""))
	if res.Success || res.Message != "Task is already completed." {
		t.Fatalf("second complete = %+v", res)
	}

	task, err := st.GetTask(ctx, actx.User(), taskID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if task.Status != storex.TaskStatusCompleted || task.CompletedAt == nil {
		t.Fatalf("task after complete = %+v", task)
	}

	res = call(t, r, contractx.AgentTypeAssistant, actx, ToolManageTask, taskArgs("archive", taskID, ""))
	if !res.Success {
		t.Fatalf("archive = %+v", res)
	}
	res = call(t, r, contractx.AgentTypeAssistant, actx, ToolManageTask, taskArgs("complete", taskID, ""))
	if res.Success {
		t.Fatalf("complete after archive succeeded: %+v", res)
	}

	res = call(t, r, contractx.AgentTypeAssistant, actx, ToolManageTask, taskArgs("delete", taskID, ""))
	if !res.Success {
		t.Fatalf("delete = %+v", res)
	}
	if _, err := st.GetTask(ctx, actx.User(), taskID); !errors.Is(err, storex.ErrNotFound) {
		t.Fatalf("GetTask() after delete error = %v", err)
	}

	entries, err := st.ListAuditLog(ctx, actx.User(), taskID)
	if err != nil {
		t.Fatalf("ListAuditLog() error = %v", err)
	}
	counts := map[string]int{}
	for _, e := range entries {
		counts[e.ActionType]++
	}
	want := map[string]int{
		storex.AuditActionCreated:      1,
		storex.AuditActionStatusChange: 2,
		storex.AuditActionDeleted:      1,
	}
	if len(entries) != 4 || len(counts) != len(want) {
		t.Fatalf("audit entries = %+v", entries)
	}
	for action, n := range want {
		if counts[action] != n {
			t.Fatalf("audit %s count = %d, want %d", action, counts[action], n)
		}
	}
}

func TestManageTaskIsUserScoped(t *testing.T) {
	t.Parallel()

	st := newSQLiteStore(t)
	r := newTestCatalog(t, st, nil)
	owner := createUser(t, st, "owner")
	intruder := createUser(t, st, "intruder")

	res := call(t, r, contractx.AgentTypeAssistant, owner, ToolManageTask, taskArgs("create", "", "Private"))
	taskID := res.Data["task"].(map[string]any)["id"].(string)

	for _, action := range []string{"edit", "complete", "archive", "delete"} {
		res := call(t, r, contractx.AgentTypeAssistant, intruder, ToolManageTask, taskArgs(action, taskID, "Hijacked"))
		if res.Success || res.Message != "Task not found or access denied." {
			t.Fatalf("%s by other user = %+v", action, res)
		}
	}

	res = call(t, r, contractx.AgentTypeAssistant, owner, ToolManageTask, taskArgs("edit", "", "x"))
	if res.Success {
		t.Fatalf("edit without task_id succeeded: %+v", res)
	}
	res = call(t, r, contractx.AgentTypeAssistant, owner, ToolManageTask, taskArgs("create", "", ""))
	if res.Success {
		t.Fatalf("create without title succeeded: %+v", res)
	}
	bad := taskArgs("create", "", "Dated")
	bad["due_at"] = "next tuesday"
	if res := call(t, r, contractx.AgentTypeAssistant, owner, ToolManageTask, bad); res.Success {
		t.Fatalf("create with bad due_at succeeded: %+v", res)
	}
}

func TestFetchTasksSummary(t *testing.T) {
	t.Parallel()

	st := newSQLiteStore(t)
	r := newTestCatalog(t, st, nil)
	actx := createUser(t, st, "fetcher")

	late := taskArgs("create", "", "Late report")
	late["due_at"] = fixedNow.Add(-24 * time.Hour).Format(time.RFC3339)
	late["priority"] = "urgent"
	call(t, r, contractx.AgentTypeAssistant, actx, ToolManageTask, late)
	call(t, r, contractx.AgentTypeAssistant, actx, ToolManageTask, taskArgs("create", "", "Someday"))

	res := call(t, r, contractx.AgentTypeAssistant, actx, ToolFetchTasks, map[string]any{"filter": "overdue"})
	if !res.Success {
		t.Fatalf("fetch_tasks = %+v", res)
	}
	tasks := res.Data["tasks"].([]map[string]any)
	if len(tasks) != 1 || tasks[0]["title"] != "Late report" || tasks[0]["overdue"] != true {
		t.Fatalf("overdue tasks = %+v", tasks)
	}

	res = call(t, r, contractx.AgentTypeAssistant, actx, ToolFetchTasks, map[string]any{"filter": "high_priority"})
	if got := len(res.Data["tasks"].([]map[string]any)); got != 1 {
		t.Fatalf("high priority tasks = %d", got)
	}

	res = call(t, r, contractx.AgentTypeAssistant, actx, ToolFetchTasks, map[string]any{"filter": "all"})
	summary := res.Data["summary"].(map[string]any)
	if summary["total"] != 2 || summary["todo"] != 2 || summary["overdue"] != 1 {
		t.Fatalf("summary = %+v", summary)
	}
}

func TestSendEmail(t *testing.T) {
	t.Parallel()

	st := newSQLiteStore(t)
	actx := createUser(t, st, "sender")

	unconfigured := newTestCatalog(t, st, &fakeMailer{})
	args := map[string]any{"to": "friend@example.com", "subject": "Hi", "body": "Line one\nLine two"}
	res := call(t, unconfigured, contractx.AgentTypeAssistant, actx, ToolSendEmail, args)
	if res.Success || !strings.HasPrefix(res.Message, "Email is not configured") {
		t.Fatalf("unconfigured send = %+v", res)
	}

	mailer := &fakeMailer{configured: true}
	r := newTestCatalog(t, st, mailer)
	res = call(t, r, contractx.AgentTypeAssistant, actx, ToolSendEmail, args)
	if !res.Success {
		t.Fatalf("send_email = %+v", res)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("sent = %d", len(mailer.sent))
	}
	sent := mailer.sent[0]
	if sent.FromName != "Casey sender" || !strings.HasSuffix(sent.Text, "Best regards,\nCasey sender") {
		t.Fatalf("mail = %+v", sent)
	}
	if !strings.Contains(sent.HTML, "Line one<br>Line two") {
		t.Fatalf("html body = %q", sent.HTML)
	}

	anon := call(t, r, contractx.AgentTypeAssistant, contractx.AgentContext{}, ToolSendEmail, args)
	if !anon.Success || mailer.sent[1].FromName != defaultSenderName {
		t.Fatalf("anonymous send = %+v", anon)
	}

	args["to"] = "not an address"
	if res := call(t, r, contractx.AgentTypeAssistant, actx, ToolSendEmail, args); res.Success {
		t.Fatalf("invalid address succeeded: %+v", res)
	}
}
