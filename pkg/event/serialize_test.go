package event

import (
	"encoding/json"
	"testing"
	"time"
)

// TestNew はNew関数でイベントが正しく生成されることを検証する。
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("TaskStatusChangedDataでイベントを生成できること", func(t *testing.T) {
		t.Parallel()

		before := time.Now().UTC()
		ev, err := New("project-1", "task-1", AggregateTypeTask, TypeTaskStatusChanged, "user-1",
			TaskStatusChangedData{From: "todo", To: "done"})
		after := time.Now().UTC()
		if err != nil {
			t.Fatalf("New()でエラーが発生: %v", err)
		}

		if ev.ID == "" {
			t.Error("IDが空文字列")
		}
		if ev.ProjectID != "project-1" || ev.AggregateID != "task-1" || ev.ActorID != "user-1" {
			t.Errorf("event = %+v", ev)
		}
		if ev.AggregateType != AggregateTypeTask || ev.EventType != TypeTaskStatusChanged {
			t.Errorf("種類が不正: %s/%s", ev.AggregateType, ev.EventType)
		}
		if ev.CreatedAt.Before(before) || ev.CreatedAt.After(after) {
			t.Errorf("CreatedAt = %v, want between %v and %v", ev.CreatedAt, before, after)
		}

		var got map[string]string
		if err := json.Unmarshal(ev.Data, &got); err != nil {
			t.Fatalf("Dataのパースに失敗: %v", err)
		}
		if got["from"] != "todo" || got["to"] != "done" {
			t.Errorf("Data = %v", got)
		}
	})

	t.Run("シリアライズできないデータはエラーになること", func(t *testing.T) {
		t.Parallel()

		_, err := New("p", "t", AggregateTypeTask, TypeTaskUpdated, "u", make(chan int))
		if err == nil {
			t.Fatal("チャネルのシリアライズでエラーが返るべき")
		}
	})

	t.Run("イベントIDは毎回異なること", func(t *testing.T) {
		t.Parallel()

		a, _ := New("p", "t", AggregateTypeTask, TypeTaskCreated, "u", TaskCreatedData{Title: "a"})
		b, _ := New("p", "t", AggregateTypeTask, TypeTaskCreated, "u", TaskCreatedData{Title: "a"})
		if a.ID == b.ID {
			t.Errorf("IDが重複: %s", a.ID)
		}
	})
}

// TestDecodeData はDecodeData関数を検証する。
func TestDecodeData(t *testing.T) {
	t.Parallel()

	t.Run("生成時のデータに復元できること", func(t *testing.T) {
		t.Parallel()

		ev, err := New("p", "p", AggregateTypeProject, TypeMemberRoleChanged, "u",
			MemberRoleChangedData{UserID: "u2", From: "member", To: "admin"})
		if err != nil {
			t.Fatalf("New()でエラーが発生: %v", err)
		}

		data, err := DecodeData[MemberRoleChangedData](ev)
		if err != nil {
			t.Fatalf("DecodeData()でエラーが発生: %v", err)
		}
		if data.UserID != "u2" || data.From != "member" || data.To != "admin" {
			t.Errorf("data = %+v", data)
		}
	})

	t.Run("不正なJSONはエラーになること", func(t *testing.T) {
		t.Parallel()

		ev := &Event{Data: json.RawMessage(`{"user_id":`)}
		if _, err := DecodeData[MemberAddedData](ev); err == nil {
			t.Fatal("不正なJSONでエラーが返るべき")
		}
	})
}
