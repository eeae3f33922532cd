package credential

import (
	"context"
	"fmt"
)

type (
	// Source names where credentials come from. The first non-empty
	// field wins in the order DBPath, Contents, FilePath.
	Source struct {
		DBPath   string
		Contents string
		FilePath string
	}
)

func (s Source) String() string {
	switch {
	case s.DBPath != "":
		return "sqlite:" + s.DBPath
	case s.Contents != "":
		return "inline"
	case s.FilePath != "":
		return "htpasswd:" + s.FilePath
	}
	return "none"
}

// Load reads the snapshot described by s
func Load(ctx context.Context, s Source) (*Snapshot, error) {
	switch {
	case s.DBPath != "":
		return LoadSQLite(ctx, s.DBPath)
	case s.Contents != "":
		return ParseInline(s.Contents)
	case s.FilePath != "":
		return LoadHtpasswdFile(s.FilePath)
	}
	return nil, fmt.Errorf("no credential source configured")
}
