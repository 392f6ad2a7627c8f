package domain

import (
	"strings"
	"testing"

	"github.com/bytedance/sonic"
)

func TestTaskMarshalKeepsEmptyDueDate(t *testing.T) {
	task := Task{ID: "t1", OwnerID: "u1", Title: "Title", DueDate: ""}

	payload, err := sonic.Marshal(task)
	if err != nil {
		t.Fatalf("marshal task: %v", err)
	}

	if !strings.Contains(string(payload), "\"dueDate\":\"\"") {
		t.Fatalf("expected dueDate field to be present, got %s", payload)
	}
}

func TestTaskPatchIsZero(t *testing.T) {
	if !(TaskPatch{}).IsZero() {
		t.Fatal("empty patch should be zero")
	}
	completed := true
	if (TaskPatch{Completed: &completed}).IsZero() {
		t.Fatal("patch with completed set should not be zero")
	}
}

func TestTaskPatchUnknownFieldRejected(t *testing.T) {
	dec := sonic.ConfigStd.NewDecoder(strings.NewReader(`{"title":"x","owner":"evil"}`))
	dec.DisallowUnknownFields()

	var p TaskPatch
	if err := dec.Decode(&p); err == nil {
		t.Fatal("expected unknown field to be rejected")
	}
}

func TestTaskPatchOmitsUnsetFields(t *testing.T) {
	title := "X"
	payload, err := sonic.Marshal(TaskPatch{Title: &title})
	if err != nil {
		t.Fatalf("marshal patch: %v", err)
	}
	if string(payload) != `{"title":"X"}` {
		t.Fatalf("expected only title to be encoded, got %s", payload)
	}
}
