package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWriteFileAtomicCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "transcricao.txt")
	if err := WriteFileAtomic(path, []byte("conteúdo"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "conteúdo" {
		t.Fatalf("contents = %q", string(data))
	}

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp-") {
			t.Fatalf("leftover temp file %s", entry.Name())
		}
	}
}

func TestWriteFileAtomicOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sentenca.md")
	if err := WriteFileAtomic(path, []byte("primeira"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if err := WriteFileAtomic(path, []byte("segunda"), 0o644); err != nil {
		t.Fatalf("WriteFileAtomic overwrite: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "segunda" {
		t.Fatalf("contents = %q, want overwrite", string(data))
	}
}

func TestCopyStream(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inputs", "document-peticao.pdf")
	n, err := CopyStream(path, strings.NewReader("corpo do upload"), 0o644)
	if err != nil {
		t.Fatalf("CopyStream: %v", err)
	}
	if n != int64(len("corpo do upload")) {
		t.Fatalf("written = %d", n)
	}

	n, err = CopyStream(path, strings.NewReader(""), 0o644)
	if err != nil {
		t.Fatalf("CopyStream empty: %v", err)
	}
	if n != 0 {
		t.Fatalf("written = %d, want 0", n)
	}
}

func TestSanitizeBaseName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"audiencia.mp4", "audiencia.mp4"},
		{"../../etc/passwd", "passwd"},
		{"  peticao inicial.pdf  ", "peticao inicial.pdf"},
		{"", "upload"},
		{"..", "upload"},
		{"nome\x00com\x01controle", "nome_com_controle"},
	}
	for _, tc := range cases {
		if got := SanitizeBaseName(tc.in); got != tc.want {
			t.Fatalf("SanitizeBaseName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
