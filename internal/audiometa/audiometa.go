// Package audiometa reads display metadata (title, artist, album) from the
// input audio file so the shell and logs can name what is being separated.
package audiometa

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Info is the display metadata of one audio file.
type Info struct {
	Path     string
	Title    string
	Artist   string
	Album    string
	FileType string
	Tagged   bool
}

// Label renders "Artist - Title", falling back to the title alone.
func (i Info) Label() string {
	if i.Artist != "" {
		return i.Artist + " - " + i.Title
	}
	return i.Title
}

// Read returns tag metadata for path. Files without readable tags still yield
// an Info whose title is the file name without extension; only failure to
// open the file is an error.
func Read(path string) (Info, error) {
	info := Info{
		Path:  path,
		Title: fallbackTitle(path),
	}

	file, err := os.Open(path)
	if err != nil {
		return info, fmt.Errorf("open audio file: %w", err)
	}
	defer func() { _ = file.Close() }()

	metadata, err := tag.ReadFrom(file)
	if err != nil {
		return info, nil
	}

	info.Tagged = true
	info.FileType = string(metadata.FileType())
	if title := strings.TrimSpace(metadata.Title()); title != "" {
		info.Title = title
	}
	info.Artist = strings.TrimSpace(metadata.Artist())
	info.Album = strings.TrimSpace(metadata.Album())
	return info, nil
}

func fallbackTitle(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
