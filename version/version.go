package version

import (
	"fmt"
	"strings"
	"sync"
)

const (
	appMajor uint = 0
	appMinor uint = 1
	appPatch uint = 0
)

// appBuild is set at build time with
// -ldflags "-X github.com/prismledger/prismd/version.appBuild=foo".
// Build metadata that is not made of [0-9A-Za-z-] is dropped.
var appBuild string

var (
	versionOnce sync.Once
	version     string
)

// Version returns the semantic version of prismd, with the build metadata if any
func Version() string {
	versionOnce.Do(func() {
		version = fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
		if isValidBuild(appBuild) {
			version += "-" + appBuild
		}
	})
	return version
}

func isValidBuild(build string) bool {
	if build == "" {
		return false
	}
	return strings.IndexFunc(build, func(r rune) bool {
		return !(r >= '0' && r <= '9' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '-')
	}) == -1
}
