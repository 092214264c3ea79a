package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"rentalbot/internal/model"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type failingStorage struct {
	loadErr error
	saveErr error
	saves   int
}

func (f *failingStorage) Load(ctx context.Context) (*model.ConversationState, error) {
	return nil, f.loadErr
}

func (f *failingStorage) Save(ctx context.Context, state *model.ConversationState) error {
	f.saves++
	return f.saveErr
}

func newStore(t *testing.T, opts Options) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "memory.json")
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return NewWithClock(context.Background(), NewFileStorage(path), opts, clock.now), path
}

func TestRecentMessages(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		appended int
		n        int
		wantLen  int
		wantHead int
	}{
		{"empty", 0, 3, 0, 0},
		{"fewer than n", 2, 5, 2, 0},
		{"exactly n", 4, 4, 4, 0},
		{"more than n", 7, 3, 3, 4},
		{"default window", 15, 0, 10, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newStore(t, Options{MaxMessages: 10, SummaryThreshold: 5})
			for i := 0; i < tt.appended; i++ {
				s.Append(ctx, model.RoleUser, fmt.Sprintf("m%d", i))
			}

			got := s.RecentMessages(tt.n)
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			for i, m := range got {
				if want := fmt.Sprintf("m%d", tt.wantHead+i); m.Content != want {
					t.Errorf("got[%d] = %q, want %q", i, m.Content, want)
				}
			}
		})
	}
}

func TestAppendTimestamps(t *testing.T) {
	s, _ := newStore(t, Options{})
	ctx := context.Background()

	s.Append(ctx, model.RoleUser, "hello")
	s.Append(ctx, model.RoleAssistant, "hi")

	msgs := s.RecentMessages(0)
	if !msgs[1].Timestamp.After(msgs[0].Timestamp) {
		t.Error("timestamps should increase with append order")
	}
	if msgs[0].Role != model.RoleUser || msgs[1].Role != model.RoleAssistant {
		t.Errorf("unexpected roles: %v, %v", msgs[0].Role, msgs[1].Role)
	}
}

func TestShouldSummarize_DoesNotReset(t *testing.T) {
	s, _ := newStore(t, Options{MaxMessages: 10, SummaryThreshold: 5})
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		s.Append(ctx, model.RoleUser, "q")
	}
	if s.ShouldSummarize() {
		t.Fatal("should not summarize below threshold")
	}

	s.Append(ctx, model.RoleAssistant, "a")
	if !s.ShouldSummarize() {
		t.Fatal("should summarize at threshold")
	}

	s.UpdateSummary(ctx, "user wants a villa")
	if !s.ShouldSummarize() {
		t.Error("trigger stays true after a summary is stored")
	}
}

func TestContext(t *testing.T) {
	s, _ := newStore(t, Options{MaxMessages: 2, SummaryThreshold: 5})
	ctx := context.Background()

	if got := s.Context(); got != "" {
		t.Errorf("empty memory context = %q, want empty", got)
	}

	s.Append(ctx, model.RoleUser, "old")
	s.Append(ctx, model.RoleUser, "Looking for a villa")
	s.Append(ctx, model.RoleAssistant, "Seaside Villa is available")
	s.UpdateSummary(ctx, "Wants a villa in Malibu")

	want := "Previous conversation summary: Wants a villa in Malibu\n" +
		"\nRecent messages:\n" +
		"user: Looking for a villa\n" +
		"assistant: Seaside Villa is available"
	if got := s.Context(); got != want {
		t.Errorf("Context() =\n%q\nwant\n%q", got, want)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	s, path := newStore(t, Options{})
	ctx := context.Background()

	s.Append(ctx, model.RoleUser, "Do you have a pool?")
	s.Append(ctx, model.RoleAssistant, "Seaside Villa has a pool.")
	if out := s.UpdateSummary(ctx, "Asked about pools"); !out.OK() {
		t.Fatalf("UpdateSummary warning: %v", out.Warning)
	}

	reloaded := New(ctx, NewFileStorage(path), Options{})
	before, after := s.Snapshot(), reloaded.Snapshot()

	if after.Summary != before.Summary {
		t.Errorf("summary = %q, want %q", after.Summary, before.Summary)
	}
	if len(after.Messages) != len(before.Messages) {
		t.Fatalf("messages = %d, want %d", len(after.Messages), len(before.Messages))
	}
	for i := range before.Messages {
		b, a := before.Messages[i], after.Messages[i]
		if a.Role != b.Role || a.Content != b.Content || !a.Timestamp.Equal(b.Timestamp) {
			t.Errorf("message %d = %+v, want %+v", i, a, b)
		}
	}
	if !after.LastSummaryTime.Equal(before.LastSummaryTime) {
		t.Errorf("last summary time = %v, want %v", after.LastSummaryTime, before.LastSummaryTime)
	}
}

func TestPersistedDocumentShape(t *testing.T) {
	s, path := newStore(t, Options{})
	s.Append(context.Background(), model.RoleUser, "hello")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read memory file: %v", err)
	}
	for _, key := range []string{`"messages"`, `"summary"`, `"last_summary_time"`, `"role":"user"`, `"timestamp"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("document missing %s: %s", key, data)
		}
	}
}

func TestLoadZonelessTimestamps(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memory.json")
	doc := `{"messages":[{"role":"user","content":"hi","timestamp":"2024-05-01T10:00:00.123456"},` +
		`{"role":"assistant","content":"Hello!","timestamp":"2024-05-01T10:00:02"}],` +
		`"summary":"Greeted","last_summary_time":"2024-05-01T09:00:00.5"}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(ctx, NewFileStorage(path), Options{})
	state := s.Snapshot()
	if len(state.Messages) != 2 || state.Summary != "Greeted" {
		t.Fatalf("loaded %d messages, summary %q", len(state.Messages), state.Summary)
	}
	want := time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.Local)
	if !state.Messages[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", state.Messages[0].Timestamp, want)
	}
	if state.LastSummaryTime.Hour() != 9 {
		t.Errorf("last summary time = %v", state.LastSummaryTime)
	}

	s.Append(ctx, model.RoleUser, "still there?")
	reloaded := New(ctx, NewFileStorage(path), Options{})
	if reloaded.Len() != 3 {
		t.Errorf("history lost on save, got %d messages", reloaded.Len())
	}
}

func TestLoadFailureStartsEmpty(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "memory.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		s := New(ctx, NewFileStorage(path), Options{})
		if s.Len() != 0 || s.Snapshot().Summary != "" {
			t.Error("malformed document should yield an empty state")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		s := New(ctx, NewFileStorage(filepath.Join(t.TempDir(), "absent.json")), Options{})
		if s.Len() != 0 {
			t.Error("missing document should yield an empty state")
		}
	})

	t.Run("storage error", func(t *testing.T) {
		s := New(ctx, &failingStorage{loadErr: errors.New("disk on fire")}, Options{})
		if s.Len() != 0 {
			t.Error("storage error should yield an empty state")
		}
	})
}

func TestSaveFailureIsWarning(t *testing.T) {
	storage := &failingStorage{saveErr: errors.New("read-only")}
	s := New(context.Background(), storage, Options{})

	out := s.Append(context.Background(), model.RoleUser, "hello")
	if out.OK() {
		t.Fatal("expected a warning outcome")
	}
	if s.Len() != 1 {
		t.Error("message should stay in memory when the save fails")
	}
	if storage.saves != 1 {
		t.Errorf("saves = %d, want 1", storage.saves)
	}
}

func TestClear(t *testing.T) {
	s, path := newStore(t, Options{})
	ctx := context.Background()

	s.Append(ctx, model.RoleUser, "hello")
	s.UpdateSummary(ctx, "greeting")
	before := s.Snapshot().LastSummaryTime

	if out := s.Clear(ctx); !out.OK() {
		t.Fatalf("Clear warning: %v", out.Warning)
	}
	snap := s.Snapshot()
	if len(snap.Messages) != 0 || snap.Summary != "" {
		t.Errorf("state not cleared: %+v", snap)
	}
	if !snap.LastSummaryTime.After(before) {
		t.Error("LastSummaryTime should be reset to now")
	}

	reloaded := New(ctx, NewFileStorage(path), Options{})
	if reloaded.Len() != 0 {
		t.Error("cleared state should be persisted")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s, _ := newStore(t, Options{})
	s.Append(context.Background(), model.RoleUser, "hello")

	snap := s.Snapshot()
	snap.Messages[0].Content = "mutated"

	if s.RecentMessages(1)[0].Content != "hello" {
		t.Error("snapshot must not alias store state")
	}
}

func TestSQLiteStorage(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "conversations.db"))
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	defer db.Close()

	alice := New(ctx, db.Session("alice"), Options{})
	alice.Append(ctx, model.RoleUser, "villa in Malibu?")
	alice.UpdateSummary(ctx, "Malibu villa")

	bob := New(ctx, db.Session("bob"), Options{})
	bob.Append(ctx, model.RoleUser, "cabin?")
	bob.Append(ctx, model.RoleAssistant, "Mountain Cabin")

	reloaded := New(ctx, db.Session("alice"), Options{})
	snap := reloaded.Snapshot()
	if len(snap.Messages) != 1 || snap.Messages[0].Content != "villa in Malibu?" {
		t.Errorf("unexpected alice messages: %+v", snap.Messages)
	}
	if snap.Summary != "Malibu villa" {
		t.Errorf("summary = %q", snap.Summary)
	}

	if New(ctx, db.Session("bob"), Options{}).Len() != 2 {
		t.Error("sessions should be isolated")
	}
	if New(ctx, db.Session("carol"), Options{}).Len() != 0 {
		t.Error("unknown session should start empty")
	}
}
