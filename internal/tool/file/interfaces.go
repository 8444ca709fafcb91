package file

// pathPolicy resolves request paths against the workspace root and policy.
type pathPolicy interface {
	Resolve(input string) (abs, rel string, err error)
	ResolveEntry(input string) (abs, rel string, err error)
	IsPathAllowed(rel string) bool
	MaxReadSize() int64
	MaxWriteSize() int64
	CheckConfirmation(operation string, confirmed bool) error
	RelOf(abs string) string
}

// auditor appends mutation records to the audit trail.
type auditor interface {
	Record(action, file string, oldSize, newSize int64)
}

// snapshotter remembers a file's content before the first mutation.
type snapshotter interface {
	Capture(rel string, content []byte, existed bool)
}
