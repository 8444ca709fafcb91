package file

import (
	"time"
)

// Content encodings.
const (
	EncodingUTF8   = "utf-8"
	EncodingBase64 = "base64"
)

// Entry types accepted by fs.create.
const (
	TypeFile = "file"
	TypeDir  = "dir"
)

// -- Read File --

type ReadFileRequest struct {
	Path string `json:"path"`
}

func (r *ReadFileRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	return nil
}

// ReadFileResponse is a FileResult: text is returned verbatim, anything that is
// not valid UTF-8 (or contains NUL bytes) is returned base64 encoded.
type ReadFileResponse struct {
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	ModTime  time.Time `json:"modTime"`
	Hash     string    `json:"hash"`
	IsBinary bool      `json:"isBinary"`
	Encoding string    `json:"encoding"`
	Content  string    `json:"content"`
}

// -- Write File --

type WriteFileRequest struct {
	Path            string `json:"path"`
	Content         string `json:"content"`
	Encoding        string `json:"encoding,omitempty"`
	CreateIfMissing *bool  `json:"createIfMissing,omitempty"`
	Atomic          *bool  `json:"atomic,omitempty"`
}

func (r *WriteFileRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	switch r.Encoding {
	case "", EncodingUTF8, EncodingBase64:
	default:
		return ErrInvalidEncoding
	}
	return nil
}

func (r *WriteFileRequest) createIfMissing() bool {
	return r.CreateIfMissing == nil || *r.CreateIfMissing
}

func (r *WriteFileRequest) atomic() bool {
	return r.Atomic == nil || *r.Atomic
}

type WriteFileResponse struct {
	Path         string `json:"path"`
	BytesWritten int    `json:"bytesWritten"`
	Hash         string `json:"hash"`
	Created      bool   `json:"created"`
}

// -- Create --

type CreateRequest struct {
	Path          string `json:"path"`
	Type          string `json:"type,omitempty"`
	CreateParents *bool  `json:"createParents,omitempty"`
}

func (r *CreateRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	switch r.Type {
	case "", TypeFile, TypeDir:
	default:
		return ErrInvalidType
	}
	return nil
}

func (r *CreateRequest) entryType() string {
	if r.Type == "" {
		return TypeFile
	}
	return r.Type
}

type CreateResponse struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// -- Delete --

type DeleteRequest struct {
	Path      string `json:"path"`
	Recursive bool   `json:"recursive,omitempty"`
	Confirmed bool   `json:"confirmed,omitempty"`
}

func (r *DeleteRequest) Validate() error {
	if r.Path == "" {
		return ErrPathRequired
	}
	return nil
}

type DeleteResponse struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// -- Move --

type MoveRequest struct {
	Src       string `json:"src"`
	Dst       string `json:"dst"`
	Overwrite bool   `json:"overwrite,omitempty"`
}

func (r *MoveRequest) Validate() error {
	if r.Src == "" {
		return ErrSourceRequired
	}
	if r.Dst == "" {
		return ErrDestinationRequired
	}
	return nil
}

type MoveResponse struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}
