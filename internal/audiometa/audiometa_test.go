package audiometa

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

// id3v23Frame builds one text frame with ISO-8859-1 encoding.
func id3v23Frame(id, text string) []byte {
	body := append([]byte{0x00}, []byte(text)...)
	size := len(body)
	frame := []byte(id)
	frame = append(frame, byte(size>>24), byte(size>>16), byte(size>>8), byte(size))
	frame = append(frame, 0x00, 0x00)
	return append(frame, body...)
}

func syncsafe(n int) []byte {
	return []byte{byte(n >> 21 & 0x7f), byte(n >> 14 & 0x7f), byte(n >> 7 & 0x7f), byte(n & 0x7f)}
}

func writeTaggedMP3(t *testing.T, dir string) string {
	t.Helper()
	var frames bytes.Buffer
	frames.Write(id3v23Frame("TIT2", "Paranoid Android"))
	frames.Write(id3v23Frame("TPE1", "Radiohead"))
	frames.Write(id3v23Frame("TALB", "OK Computer"))

	var buf bytes.Buffer
	buf.WriteString("ID3")
	buf.Write([]byte{0x03, 0x00, 0x00})
	buf.Write(syncsafe(frames.Len()))
	buf.Write(frames.Bytes())
	buf.Write(make([]byte, 128))

	path := filepath.Join(dir, "track01.mp3")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write mp3: %v", err)
	}
	return path
}

func TestReadTaggedFile(t *testing.T) {
	info, err := Read(writeTaggedMP3(t, t.TempDir()))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !info.Tagged {
		t.Fatal("expected tags to be read")
	}
	if info.Title != "Paranoid Android" || info.Artist != "Radiohead" || info.Album != "OK Computer" {
		t.Fatalf("unexpected info %+v", info)
	}
	if info.Label() != "Radiohead - Paranoid Android" {
		t.Fatalf("unexpected label %q", info.Label())
	}
}

func TestReadUntaggedFallsBackToFilename(t *testing.T) {
	path := filepath.Join(t.TempDir(), "My Demo.wav")
	if err := os.WriteFile(path, []byte("not really audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	info, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.Tagged || info.Title != "My Demo" || info.Label() != "My Demo" {
		t.Fatalf("unexpected info %+v", info)
	}
}

func TestReadMissingFile(t *testing.T) {
	info, err := Read(filepath.Join(t.TempDir(), "gone.mp3"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if info.Title != "gone" {
		t.Fatalf("expected fallback title, got %q", info.Title)
	}
}
