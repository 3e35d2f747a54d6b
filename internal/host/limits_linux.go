//go:build linux

package host

import (
	"codeberg.org/mutker/sysreport/internal/errors"
	"golang.org/x/sys/unix"
)

// PathLimits are the longest file name and path a filesystem accepts.
type PathLimits struct {
	MaxFile int
	MaxPath int
}

func (p *Provider) PathLimits(mountpoint string) (PathLimits, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(mountpoint, &st); err != nil {
		return PathLimits{}, errors.New().Wrap(ErrDiskRead, err)
	}

	return PathLimits{MaxFile: int(st.Namelen), MaxPath: unix.PathMax}, nil
}
