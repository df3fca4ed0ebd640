package hoststatus

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// OSRelease holds the fields of os-release(5) the snapshot reports.
type OSRelease struct {
	Name      string
	VersionID string
	Codename  string
}

// ParseOSRelease reads an os-release file. The codename falls back to
// UBUNTU_CODENAME for releases that predate VERSION_CODENAME.
func ParseOSRelease(data []byte) (OSRelease, error) {
	f, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return OSRelease{}, fmt.Errorf("invalid os-release: %w", err)
	}
	sec := f.Section(ini.DefaultSection)

	codename := sec.Key("VERSION_CODENAME").String()
	if codename == "" {
		codename = sec.Key("UBUNTU_CODENAME").String()
	}
	return OSRelease{
		Name:      sec.Key("NAME").String(),
		VersionID: sec.Key("VERSION_ID").String(),
		Codename:  codename,
	}, nil
}
