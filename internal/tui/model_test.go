package tui

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"tasnim.dev/pro-upgrade/internal/upgrade"
)

func newTestModel() Model {
	return NewModel(NewEventSource(make(chan struct{})), nil, "test-profile", "us-east-1", "123456789012")
}

func send(m Model, events ...upgrade.Event) (Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, e := range events {
		var updated tea.Model
		updated, cmd = m.Update(eventMsg{e})
		m = updated.(Model)
	}
	return m, cmd
}

func TestView_Waiting(t *testing.T) {
	m := newTestModel()

	view := m.View().Content
	if !strings.Contains(view, "Waiting for the first instance") {
		t.Error("initial view should say it is waiting")
	}
	if !strings.Contains(view, "test-profile") {
		t.Error("view should show profile name")
	}
	if !strings.Contains(view, "123456789012") {
		t.Error("view should show account ID")
	}
	if !strings.Contains(view, "us-east-1") {
		t.Error("view should show region")
	}
}

func TestUpdate_TracksInstancesInOrder(t *testing.T) {
	m, _ := send(newTestModel(),
		upgrade.Event{Stage: upgrade.StageRun, Status: upgrade.StatusStarted, Message: "Processing 2 instance(s)"},
		upgrade.Event{InstanceID: "i-B", Stage: upgrade.StageFetch, Status: upgrade.StatusStarted, Message: "Trying instance i-B"},
		upgrade.Event{InstanceID: "i-A", Stage: upgrade.StageFetch, Status: upgrade.StatusStarted, Message: "Trying instance i-A"},
		upgrade.Event{InstanceID: "i-B", Stage: upgrade.StageConvert, Status: upgrade.StatusProgress, TaskID: "lct-1", Message: "License conversion started with id: lct-1"},
		upgrade.Event{InstanceID: "i-B", Stage: upgrade.StageConvert, Status: upgrade.StatusProgress, Message: "still going"},
	)

	rows := m.table.Rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0][0] != "i-B" || rows[1][0] != "i-A" {
		t.Errorf("row order = %s, %s; want first-seen order", rows[0][0], rows[1][0])
	}
	if rows[0][1] != "convert" {
		t.Errorf("stage = %q, want convert", rows[0][1])
	}
	if rows[0][3] != "lct-1" {
		t.Errorf("task = %q, want the task id to be kept", rows[0][3])
	}
	if rows[1][3] != "—" {
		t.Errorf("task = %q, want dash before submission", rows[1][3])
	}
	if !strings.Contains(m.View().Content, "still going") {
		t.Error("view should show the latest event")
	}
}

func TestBuildRows_StatusCarriesBullet(t *testing.T) {
	m, _ := send(newTestModel(),
		upgrade.Event{InstanceID: "i-A", Stage: upgrade.StageStop, Status: upgrade.StatusFailed, Message: "Error stopping instance i-A"},
	)

	rows := m.table.Rows()
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if !strings.Contains(rows[0][2], "●") || !strings.Contains(rows[0][2], "failed") {
		t.Errorf("status cell = %q, want a bullet and the status", rows[0][2])
	}
	if !strings.Contains(m.View().Content, "●") {
		t.Error("view should render the status bullet")
	}
}

func TestUpdate_QuitsWhenRunDone(t *testing.T) {
	m, cmd := send(newTestModel(),
		upgrade.Event{InstanceID: "i-A", Stage: upgrade.StageDone, Status: upgrade.StatusSucceeded, Message: "Instance i-A is now running Ubuntu Pro"},
		upgrade.Event{Stage: upgrade.StageRun, Status: upgrade.StatusSucceeded, Message: "Done"},
	)

	if !m.done {
		t.Fatal("model should be done after the run-level Done event")
	}
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	view := m.View().Content
	if !strings.Contains(view, "Done") {
		t.Error("done view should show Done")
	}
	if !strings.Contains(view, "1 instance(s) processed") {
		t.Error("done view should show how many instances were processed")
	}
}

func TestUpdate_QuitCancelsRun(t *testing.T) {
	cancelled := false
	m := NewModel(NewEventSource(make(chan struct{})), func() { cancelled = true }, "", "", "")

	updated, cmd := m.Update(tea.KeyPressMsg{Code: 'q', Text: "q"})
	model := updated.(Model)

	if !cancelled {
		t.Error("quitting mid-run should cancel the run")
	}
	if !model.Cancelled() {
		t.Error("model should report the run as cancelled")
	}
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if !strings.Contains(model.View().Content, "Cancelled") {
		t.Error("view should say the run was cancelled")
	}
}

func TestUpdate_WindowSizeMsg(t *testing.T) {
	m := newTestModel()

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	model := updated.(Model)

	if model.width != 160 {
		t.Errorf("width = %d, want 160", model.width)
	}
	if model.height != 40 {
		t.Errorf("height = %d, want 40", model.height)
	}
	cols := model.table.Columns()
	if cols[len(cols)-1].Width <= 20 {
		t.Errorf("message col width = %d, want > 20 for wide terminal", cols[len(cols)-1].Width)
	}
}

func TestColumnsFor_ClampsMessageWidth(t *testing.T) {
	cols := columnsFor(40)
	if cols[len(cols)-1].Width != 20 {
		t.Errorf("message col width = %d, want 20", cols[len(cols)-1].Width)
	}
}

func TestEventSource_ObserveReturnsAfterDone(t *testing.T) {
	done := make(chan struct{})
	src := NewEventSource(done)
	close(done)

	for i := 0; i < cap(src.ch)+1; i++ {
		src.Observe(upgrade.Event{Message: "dropped"})
	}
	if msg := src.next()(); msg != nil {
		if _, ok := msg.(eventMsg); !ok {
			t.Errorf("unexpected message %T", msg)
		}
	}
}
