package file

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"unicode/utf8"

	"github.com/Cyclone1070/workspacerpc/internal/config"
	"github.com/Cyclone1070/workspacerpc/internal/tool/errutil"
	"github.com/Cyclone1070/workspacerpc/internal/tool/helper/content"
)

// fileReader defines the minimal filesystem operations needed for reading files.
type fileReader interface {
	Stat(path string) (os.FileInfo, error)
	ReadFile(path string) ([]byte, error)
}

// ReadFileTool handles fs.read.
type ReadFileTool struct {
	fileOps fileReader
	policy  pathPolicy
	config  *config.Config
}

// NewReadFileTool creates a new ReadFileTool with injected dependencies.
func NewReadFileTool(fileOps fileReader, policy pathPolicy, cfg *config.Config) *ReadFileTool {
	if fileOps == nil {
		panic("fileOps is required")
	}
	if policy == nil {
		panic("policy is required")
	}
	if cfg == nil {
		panic("config is required")
	}
	return &ReadFileTool{fileOps: fileOps, policy: policy, config: cfg}
}

// Run reads a whole regular file. The size ceiling is checked against the
// stat result before any content is read.
//
// Note: ctx is accepted for API consistency but not used - file I/O is synchronous.
func (t *ReadFileTool) Run(ctx context.Context, req *ReadFileRequest) (*ReadFileResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, errutil.Invalid(err)
	}

	abs, rel, err := t.policy.Resolve(req.Path)
	if err != nil {
		return nil, err
	}

	info, err := t.fileOps.Stat(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Path: rel}
		}
		return nil, &StatError{Path: rel, Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &NotAFileError{Path: rel}
	}

	limit := t.policy.MaxReadSize()
	if info.Size() > limit {
		return nil, &TooLargeError{Path: rel, Size: info.Size(), Limit: limit}
	}

	data, err := t.fileOps.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &NotFoundError{Path: rel}
		}
		return nil, &ReadError{Path: rel, Cause: err}
	}
	// The file may have grown between stat and read.
	if int64(len(data)) > limit {
		return nil, &TooLargeError{Path: rel, Size: int64(len(data)), Limit: limit}
	}

	resp := &ReadFileResponse{
		Path:    rel,
		Size:    int64(len(data)),
		ModTime: info.ModTime().UTC(),
		Hash:    content.Hash(data),
	}
	if isBinary(data, t.config.Tools.BinarySampleSize) {
		resp.IsBinary = true
		resp.Encoding = EncodingBase64
		resp.Content = base64.StdEncoding.EncodeToString(data)
	} else {
		resp.Encoding = EncodingUTF8
		resp.Content = string(data)
	}
	return resp, nil
}

// isBinary classifies content that does not decode as UTF-8, or that carries
// NUL bytes in its leading sample, as binary.
func isBinary(data []byte, sampleSize int) bool {
	return content.IsBinarySample(data, sampleSize) || !utf8.Valid(data)
}
