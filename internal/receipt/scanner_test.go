package receipt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeFile creates path under dir with size bytes.
func writeFile(t *testing.T, dir, rel string, size int) {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(strings.Repeat("x", size)), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.PNG", 10)
	writeFile(t, dir, "a.jpg", 10)
	writeFile(t, dir, "notes.txt", 10)
	writeFile(t, dir, "2024/jan/rent.pdf", 10)
	writeFile(t, dir, ".thumbs/c.png", 10)
	writeFile(t, dir, ".hidden.jpg", 10)
	writeFile(t, dir, "huge.jpeg", 100)

	files, tooLarge, err := ScanDir(dir, 50)
	if err != nil {
		t.Fatalf("ScanDir: %v", err)
	}

	var names []string
	for _, f := range files {
		names = append(names, f.Name)
	}
	want := "rent.pdf,a.jpg,b.PNG"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("files = %s, want %s", got, want)
	}
	if len(tooLarge) != 1 || tooLarge[0].Name != "huge.jpeg" {
		t.Errorf("tooLarge = %+v", tooLarge)
	}
	if TotalSize(files) != 30 {
		t.Errorf("TotalSize = %d, want 30", TotalSize(files))
	}
}

func TestScanDirRejectsFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.jpg", 1)
	if _, _, err := ScanDir(filepath.Join(dir, "a.jpg"), 0); err == nil {
		t.Error("ScanDir on a file succeeded")
	}
	if _, _, err := ScanDir(filepath.Join(dir, "missing"), 0); !os.IsNotExist(err) {
		t.Errorf("missing dir err = %v", err)
	}
}
