// manager_test.go - Tests for limit file storage
package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func createTestStore(t *testing.T) *LocalStore {
	store, err := NewLocalStore(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func TestNewLocalStore(t *testing.T) {
	t.Run("creates upload directory", func(t *testing.T) {
		uploadDir := filepath.Join(t.TempDir(), "uploads")

		if _, err := NewLocalStore(uploadDir, 0); err != nil {
			t.Fatalf("Failed to create store: %v", err)
		}

		if _, err := os.Stat(uploadDir); os.IsNotExist(err) {
			t.Error("Expected upload directory to be created")
		}
	})
}

func TestLocalStore_Save(t *testing.T) {
	t.Run("saves file and keeps extension", func(t *testing.T) {
		store := createTestStore(t)
		content := "- signalPathName: A\n"

		info, err := store.Save("limits.YAML", strings.NewReader(content))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}

		if info.ID == "" {
			t.Error("Expected ID to be set")
		}
		if info.Size != int64(len(content)) {
			t.Errorf("Expected size %d, got %d", len(content), info.Size)
		}
		if info.Status != "uploaded" {
			t.Errorf("Expected status 'uploaded', got %v", info.Status)
		}

		path, err := store.GetFilePath(info.ID)
		if err != nil {
			t.Fatalf("GetFilePath failed: %v", err)
		}
		if filepath.Ext(path) != ".yaml" {
			t.Errorf("Expected .yaml extension, got %q", path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("Failed to read saved file: %v", err)
		}
		if string(data) != content {
			t.Errorf("Expected content %q, got %q", content, string(data))
		}
	})

	t.Run("strips directories from name", func(t *testing.T) {
		store := createTestStore(t)

		info, err := store.Save("../../etc/limits.json", strings.NewReader("[]"))
		if err != nil {
			t.Fatalf("Failed to save file: %v", err)
		}
		if info.Name != "limits.json" {
			t.Errorf("Expected name 'limits.json', got %q", info.Name)
		}
	})

	t.Run("rejects empty name", func(t *testing.T) {
		store := createTestStore(t)

		if _, err := store.Save("  ", strings.NewReader("x")); err == nil {
			t.Error("Expected error for empty name")
		}
	})

	t.Run("rejects oversized file", func(t *testing.T) {
		store, err := NewLocalStore(t.TempDir(), 4)
		if err != nil {
			t.Fatal(err)
		}

		_, err = store.Save("big.json", strings.NewReader("[1,2,3]"))
		if !errors.Is(err, ErrTooLarge) {
			t.Fatalf("Expected ErrTooLarge, got %v", err)
		}
		entries, _ := os.ReadDir(store.uploadDir)
		if len(entries) != 0 {
			t.Errorf("Expected partial file to be removed, found %d files", len(entries))
		}
	})
}

func TestLocalStore_Get(t *testing.T) {
	store := createTestStore(t)
	saved, _ := store.Save("a.json", strings.NewReader("[]"))

	info, err := store.Get(saved.ID)
	if err != nil {
		t.Fatalf("Failed to get file: %v", err)
	}
	if info.Name != "a.json" {
		t.Errorf("Expected name 'a.json', got %v", info.Name)
	}

	if _, err := store.Get("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestLocalStore_List(t *testing.T) {
	t.Run("sorts newest first and limits", func(t *testing.T) {
		store := createTestStore(t)
		for _, name := range []string{"1.json", "2.json", "3.json"} {
			if _, err := store.Save(name, strings.NewReader("[]")); err != nil {
				t.Fatal(err)
			}
			time.Sleep(2 * time.Millisecond)
		}

		list, err := store.List(2)
		if err != nil {
			t.Fatalf("Failed to list: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("Expected 2 files, got %d", len(list))
		}
		if list[0].Name != "3.json" {
			t.Errorf("Expected newest file first, got %s", list[0].Name)
		}
	})

	t.Run("zero limit lists all", func(t *testing.T) {
		store := createTestStore(t)
		store.Save("1.json", strings.NewReader("[]"))
		store.Save("2.json", strings.NewReader("[]"))

		list, _ := store.List(0)
		if len(list) != 2 {
			t.Errorf("Expected 2 files, got %d", len(list))
		}
	})
}

func TestLocalStore_Delete(t *testing.T) {
	store := createTestStore(t)
	info, _ := store.Save("a.json", strings.NewReader("[]"))
	path, _ := store.GetFilePath(info.ID)

	if err := store.Delete(info.ID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected physical file to be removed")
	}
	if _, err := store.Get(info.ID); err == nil {
		t.Error("Expected metadata to be removed")
	}
	if err := store.Delete(info.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestLocalStore_RenameAndStatus(t *testing.T) {
	store := createTestStore(t)
	info, _ := store.Save("a.json", strings.NewReader("[]"))

	renamed, err := store.Rename(info.ID, "bench-limits.json")
	if err != nil {
		t.Fatalf("Failed to rename: %v", err)
	}
	if renamed.Name != "bench-limits.json" {
		t.Errorf("Expected new name, got %s", renamed.Name)
	}

	if err := store.MarkStatus(info.ID, "imported"); err != nil {
		t.Fatalf("MarkStatus failed: %v", err)
	}
	got, _ := store.Get(info.ID)
	if got.Status != "imported" {
		t.Errorf("Expected status 'imported', got %s", got.Status)
	}

	if _, err := store.Rename("missing", "x"); err == nil {
		t.Error("Expected error renaming missing file")
	}
	if err := store.MarkStatus("missing", "x"); err == nil {
		t.Error("Expected error marking missing file")
	}
}

func TestLocalStore_ConcurrentSaves(t *testing.T) {
	store := createTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Save("c.json", strings.NewReader("[]")); err != nil {
				t.Errorf("Save failed: %v", err)
			}
		}()
	}
	wg.Wait()

	list, _ := store.List(0)
	if len(list) != 20 {
		t.Errorf("Expected 20 files, got %d", len(list))
	}
}
