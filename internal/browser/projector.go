// Package browser turns flat object listings into a folder hierarchy and
// tracks where the user is in it.
package browser

import (
	"strings"

	"github.com/damacus/iron-files/internal/models"
	"github.com/damacus/iron-files/internal/services"
)

// Project builds the entries shown for prefix: folders first, then files,
// each kind in store order. The prefix's own marker object is never a file
// inside itself.
func Project(prefix string, listing services.ListResult) []models.ObjectEntry {
	entries := make([]models.ObjectEntry, 0, len(listing.CommonPrefixes)+len(listing.Contents))

	for _, cp := range listing.CommonPrefixes {
		if cp == prefix || !strings.HasPrefix(cp, prefix) {
			continue
		}
		entries = append(entries, models.ObjectEntry{
			Key:  cp,
			Name: DisplayName(cp),
			Kind: models.KindFolder,
		})
	}

	for _, obj := range listing.Contents {
		if obj.Key == prefix || !strings.HasPrefix(obj.Key, prefix) {
			continue
		}
		entries = append(entries, models.ObjectEntry{
			Key:          obj.Key,
			Name:         DisplayName(obj.Key),
			Kind:         models.KindFile,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	return entries
}

// DisplayName is the last non-empty segment of a folder key, or the part of
// a file key after the final "/".
func DisplayName(key string) string {
	if strings.HasSuffix(key, services.Delimiter) {
		segments := splitSegments(key)
		if len(segments) == 0 {
			return ""
		}
		return segments[len(segments)-1]
	}
	if idx := strings.LastIndex(key, services.Delimiter); idx >= 0 {
		return key[idx+1:]
	}
	return key
}

func splitSegments(prefix string) []string {
	var segments []string
	for _, part := range strings.Split(prefix, services.Delimiter) {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}
