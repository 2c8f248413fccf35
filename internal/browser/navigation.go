package browser

import (
	"strings"

	"github.com/damacus/iron-files/internal/models"
	"github.com/damacus/iron-files/internal/services"
)

// Navigator holds the current virtual directory. The prefix is always
// empty (bucket root) or ends with "/".
type Navigator struct {
	prefix string
}

// NewNavigator starts at prefix, normalized
func NewNavigator(prefix string) *Navigator {
	return &Navigator{prefix: NormalizePrefix(prefix)}
}

// Current returns the current prefix
func (n *Navigator) Current() string {
	return n.prefix
}

// EnterFolder moves into a folder entry's key
func (n *Navigator) EnterFolder(folderKey string) string {
	n.prefix = folderKey
	return n.prefix
}

// GoBack pops one segment. At the root it does nothing.
func (n *Navigator) GoBack() string {
	n.prefix = ParentPrefix(n.prefix)
	return n.prefix
}

// ParentPrefix drops the last segment of prefix
func ParentPrefix(prefix string) string {
	segments := splitSegments(prefix)
	if len(segments) <= 1 {
		return ""
	}
	return strings.Join(segments[:len(segments)-1], services.Delimiter) + services.Delimiter
}

// ChildPrefix is the key of folder name directly under prefix
func ChildPrefix(prefix, name string) string {
	return prefix + name + services.Delimiter
}

// NormalizePrefix cleans a prefix taken from a request: no leading "/",
// a trailing "/" unless it is the root.
func NormalizePrefix(raw string) string {
	prefix := strings.TrimLeft(strings.TrimSpace(raw), services.Delimiter)
	if prefix == "" {
		return ""
	}
	if !strings.HasSuffix(prefix, services.Delimiter) {
		prefix += services.Delimiter
	}
	return prefix
}

// Breadcrumbs lists every ancestor of prefix, root excluded
func Breadcrumbs(prefix string) []models.Breadcrumb {
	breadcrumbs := []models.Breadcrumb{}
	path := ""
	for _, part := range splitSegments(prefix) {
		path += part + services.Delimiter
		breadcrumbs = append(breadcrumbs, models.Breadcrumb{
			Name: part,
			Path: path,
		})
	}
	return breadcrumbs
}
