//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package hoststatus

import (
	"runtime"

	"github.com/shirou/gopsutil/v4/host"
)

func readUname(info *host.InfoStat) (uname, error) {
	return uname{
		sysname: runtime.GOOS,
		release: info.KernelVersion,
		version: info.PlatformVersion,
		machine: info.KernelArch,
	}, nil
}
