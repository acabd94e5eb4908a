package models

import (
	"io"
	"os"
	"path/filepath"
)

// Phase is the stage of the upload-and-summarize lifecycle.
type Phase int

const (
	Idle Phase = iota
	Selecting
	Uploading
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Uploading:
		return "uploading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// PendingFile is the file chosen for the next submission. Its bytes are only read when the upload runs.
type PendingFile struct {
	Name string
	Open func() (io.ReadCloser, error)
}

// LocalFile builds a [PendingFile] backed by a path on disk. The file is not opened until the upload reads it.
func LocalFile(path string) PendingFile {
	return PendingFile{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) { return os.Open(path) },
	}
}

// TransferState is the observable state of the transfer lifecycle.
//
// Summary is only set in [Succeeded] and Error only in [Failed].
type TransferState struct {
	Phase    Phase
	FileName string // File the displayed outcome belongs to
	Summary  string
	Error    string
}
