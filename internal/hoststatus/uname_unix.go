//go:build linux || darwin || freebsd || netbsd || openbsd

package hoststatus

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/host"
	"golang.org/x/sys/unix"
)

func readUname(_ *host.InfoStat) (uname, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return uname{}, fmt.Errorf("uname: %w", err)
	}
	return uname{
		sysname: unix.ByteSliceToString(u.Sysname[:]),
		release: unix.ByteSliceToString(u.Release[:]),
		version: unix.ByteSliceToString(u.Version[:]),
		machine: unix.ByteSliceToString(u.Machine[:]),
	}, nil
}
