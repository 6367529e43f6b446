// Package artifact defines the build output records fed to a measuring session
// and a source that produces them from the filesystem.
package artifact

import (
	"io"
	"time"
)

// FileInfo is the filesystem-reported metadata of an artifact.
type FileInfo struct {
	Size    int64
	ModTime time.Time
}

// Artifact is one build output. Exactly one of Contents and Stream is normally set:
// Contents for fully materialized files, Stream for unbuffered input.
type Artifact struct {
	Path     string
	Stat     *FileInfo
	Contents []byte
	Stream   io.Reader
}

// FromBytes builds an in-memory artifact, e.g. generated output not yet on disk.
func FromBytes(path string, contents []byte) Artifact {
	if contents == nil {
		contents = []byte{}
	}
	return Artifact{Path: path, Contents: contents}
}

// IsNull reports whether the artifact carries no content at all.
func (a Artifact) IsNull() bool {
	return a.Contents == nil && a.Stream == nil
}

// IsStream reports whether the artifact was delivered as an unbuffered stream.
func (a Artifact) IsStream() bool {
	return a.Stream != nil
}

// SizeBytes is the filesystem size when known, else the length of the contents.
func (a Artifact) SizeBytes() int64 {
	if a.Stat != nil {
		return a.Stat.Size
	}
	return int64(len(a.Contents))
}
