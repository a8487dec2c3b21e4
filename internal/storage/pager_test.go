package storage

import (
	"path/filepath"
	"testing"
)

func TestPagerOpenEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	pager, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer pager.Close()

	if pager.NumPages() != 0 {
		t.Fatalf("NumPages = %d, want 0", pager.NumPages())
	}
	if pager.GetUnusedPageNum() != 0 {
		t.Fatalf("GetUnusedPageNum = %d, want 0", pager.GetUnusedPageNum())
	}
}

func TestPagerGetPageAllocatesAndCaches(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	pager, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer pager.Close()

	pg := pager.GetPage(0)
	pg[0] = 0xAB

	if pager.NumPages() != 1 {
		t.Fatalf("NumPages = %d, want 1", pager.NumPages())
	}

	again := pager.GetPage(0)
	if again[0] != 0xAB {
		t.Fatalf("GetPage did not return the cached frame: got %x", again[0])
	}
}

func TestPagerPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	pager, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	pg := pager.GetPage(0)
	pg[10] = 0x42
	if err := pager.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	if reopened.NumPages() != 1 {
		t.Fatalf("NumPages after reopen = %d, want 1", reopened.NumPages())
	}
	got := reopened.GetPage(0)
	if got[10] != 0x42 {
		t.Fatalf("byte at offset 10 = %x, want 0x42", got[10])
	}
}
