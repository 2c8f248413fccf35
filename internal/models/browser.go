// Package models contains data structures used across handlers
package models

import (
	"time"

	"github.com/damacus/iron-files/internal/utils"
)

// EntryKind tells folders and files apart in a listing
type EntryKind string

const (
	KindFolder EntryKind = "folder"
	KindFile   EntryKind = "file"
)

// ObjectEntry is one row of a projected listing: a file or a synthesized folder.
// Folder keys end with "/", report size 0 and carry no timestamp.
type ObjectEntry struct {
	Key          string     `json:"key"`
	Name         string     `json:"name"`
	Kind         EntryKind  `json:"type"`
	Size         int64      `json:"size"`
	LastModified *time.Time `json:"lastModified,omitempty"`
}

// IsFolder reports whether the entry is a folder
func (e ObjectEntry) IsFolder() bool {
	return e.Kind == KindFolder
}

// FormattedSize returns the display size, "-" for folders
func (e ObjectEntry) FormattedSize() string {
	if e.IsFolder() {
		return "-"
	}
	return utils.FormatFileSize(e.Size)
}

// FormattedDate returns the display timestamp, "-" when the store gave none
func (e ObjectEntry) FormattedDate() string {
	return utils.FormatTimestamp(e.LastModified)
}

// Breadcrumb for navigation
type Breadcrumb struct {
	Name string `json:"name"`
	Path string `json:"path"`
}
