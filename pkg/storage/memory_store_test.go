package storage

import (
	"sync"
	"testing"

	"github.com/pkg/errors"

	"github.com/gokaycavdar/go-cdrguard/pkg/models"
)

func TestMemoryStore_SaveGet(t *testing.T) {
	store := NewMemoryStore()
	res := &models.AnalysisResult{TotalUsers: 10}

	saved, err := store.Save("alice", "march", res)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.ID == "" || saved.CreatedAt.IsZero() {
		t.Errorf("saved report missing identity: %+v", saved)
	}

	got, err := store.Get("alice", "march")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Result != res || got.ID != saved.ID {
		t.Errorf("Get returned %+v", got)
	}

	again, err := store.Save("alice", "march", &models.AnalysisResult{TotalUsers: 11})
	if err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if again.ID == saved.ID {
		t.Error("replacement should get a new id")
	}
	got, _ = store.Get("alice", "march")
	if got.Result.TotalUsers != 11 {
		t.Error("second save should replace the first")
	}
}

func TestMemoryStore_Errors(t *testing.T) {
	store := NewMemoryStore()

	tests := []struct {
		name        string
		owner, repo string
		result      *models.AnalysisResult
	}{
		{"missing owner", "", "r", &models.AnalysisResult{}},
		{"missing name", "o", "", &models.AnalysisResult{}},
		{"nil result", "o", "r", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Save(tt.owner, tt.repo, tt.result); err == nil {
				t.Error("expected error")
			}
		})
	}

	if _, err := store.Get("nobody", "nothing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_List(t *testing.T) {
	store := NewMemoryStore()
	for _, name := range []string{"w3", "w1", "w2"} {
		if _, err := store.Save("bob", name, &models.AnalysisResult{}); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	_, _ = store.Save("carol", "w9", &models.AnalysisResult{})

	list, err := store.List("bob")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].Name != "w1" || list[2].Name != "w3" {
		t.Errorf("list = %+v", list)
	}

	empty, err := store.List("nobody")
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("unknown owner list = %v, %v", empty, err)
	}
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a' + i))
			if _, err := store.Save("team", name, &models.AnalysisResult{TotalUsers: i}); err != nil {
				t.Errorf("Save: %v", err)
			}
			_, _ = store.List("team")
		}(i)
	}
	wg.Wait()

	list, _ := store.List("team")
	if len(list) != 20 {
		t.Errorf("stored %d reports, want 20", len(list))
	}
}

var _ ReportStore = (*MemoryStore)(nil)
