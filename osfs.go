package convertfs

import (
	"github.com/absfs/absfs"
	"github.com/absfs/osfs"
)

// NewOSFS returns the host filesystem rooted at the process working
// directory. Paths are Unix-style; use osfs.FromNative on Windows paths.
func NewOSFS() (absfs.Filer, error) {
	fsys, err := osfs.NewFS()
	if err != nil {
		return nil, err
	}
	return fsys, nil
}
