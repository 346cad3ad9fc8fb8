package storage

import (
	"context"
	"regexp"
	"strings"
	"time"
)

// ImageStore saves a meal photo and returns a URL it can be viewed at.
type ImageStore interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// ImageFileName builds "<name>_<timestamp>.jpg" with the user name made safe
// for object keys.
func ImageFileName(userName string, at time.Time) string {
	base := strings.Trim(unsafeNameChars.ReplaceAllString(strings.TrimSpace(userName), "_"), "_")
	if base == "" {
		base = "user"
	}
	return base + "_" + at.Format("20060102_150405") + ".jpg"
}

// Noop skips uploads; meal rows are logged with an empty picture URL.
type Noop struct{}

func (Noop) Upload(context.Context, string, []byte) (string, error) { return "", nil }
