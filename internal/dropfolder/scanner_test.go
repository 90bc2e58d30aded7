package dropfolder

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestScannerClaimsEachFileOnce(t *testing.T) {
	dir := t.TempDir()
	scanner := NewScanner(dir)

	a := writeFile(t, dir, "logcard-a.pdf")
	writeFile(t, dir, "notes.txt")

	fresh, err := scanner.ListNew()
	if err != nil {
		t.Fatalf("ListNew: %v", err)
	}
	if len(fresh) != 1 || fresh[0] != a {
		t.Fatalf("ListNew() = %v, want only the PDF", fresh)
	}

	// A second scan must not re-claim the same file.
	fresh, err = scanner.ListNew()
	if err != nil {
		t.Fatalf("ListNew: %v", err)
	}
	if len(fresh) != 0 {
		t.Errorf("second scan returned %v, want nothing", fresh)
	}

	// New deposits are picked up; files are left in place.
	b := writeFile(t, dir, "LOGCARD-B.PDF")
	fresh, err = scanner.ListNew()
	if err != nil {
		t.Fatalf("ListNew: %v", err)
	}
	if len(fresh) != 1 || fresh[0] != b {
		t.Errorf("ListNew() = %v, want the new deposit", fresh)
	}
	if _, err := os.Stat(a); err != nil {
		t.Errorf("claimed file was removed: %v", err)
	}

	if !scanner.Seen(a) || !scanner.Seen(b) {
		t.Error("claimed paths must be marked seen")
	}
}

func TestScannerIgnoresSubdirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "archive.pdf"), 0o750); err != nil {
		t.Fatal(err)
	}

	scanner := NewScanner(dir)
	fresh, err := scanner.ListNew()
	if err != nil {
		t.Fatalf("ListNew: %v", err)
	}
	if len(fresh) != 0 {
		t.Errorf("ListNew() = %v, want nothing for directories", fresh)
	}
}

func TestScannerMissingFolderErrors(t *testing.T) {
	scanner := NewScanner(filepath.Join(t.TempDir(), "absent"))
	if _, err := scanner.ListNew(); err == nil {
		t.Error("scanning a missing folder must surface the error")
	}
}
