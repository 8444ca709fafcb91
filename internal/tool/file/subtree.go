package file

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/Cyclone1070/workspacerpc/internal/policy"
)

type dirLister interface {
	ListDir(path string) ([]os.FileInfo, error)
}

// checkSubtree applies the path rules to every entry below the directory at
// abs. With dstRel set, each entry must also be allowed at the location it
// would have under dstRel. Symlinked directories are entries, not subtrees.
func checkSubtree(ctx context.Context, fileOps dirLister, pol pathPolicy, abs, rel, dstRel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	children, err := fileOps.ListDir(abs)
	if err != nil {
		return &ReadError{Path: rel, Cause: err}
	}
	for _, child := range children {
		childRel := path.Join(rel, child.Name())
		if !pol.IsPathAllowed(childRel) {
			return &policy.PathDeniedError{Path: childRel}
		}
		var childDst string
		if dstRel != "" {
			childDst = path.Join(dstRel, child.Name())
			if !pol.IsPathAllowed(childDst) {
				return &policy.PathDeniedError{Path: childDst}
			}
		}
		if child.IsDir() {
			if err := checkSubtree(ctx, fileOps, pol, filepath.Join(abs, child.Name()), childRel, childDst); err != nil {
				return err
			}
		}
	}
	return nil
}
