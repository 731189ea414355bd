// Package version exposes the build version of scriptsmgr.
package version

import (
	_ "embed" // for go:embed
	"fmt"
	"strconv"
	"strings"
)

// VERSION holds the release version, e.g. 0.4.0 or 0.4.0-pr2
//
//go:embed VERSION
var VERSION string

// Version segments
var (
	MAJOR int
	MINOR int
	FIX   int
	PRE   int
)

func init() {
	VERSION = strings.TrimSpace(VERSION)
	MAJOR, MINOR, FIX, PRE = parse(VERSION)
}

func parse(v string) (major, minor, fix, pre int) {
	segments := strings.SplitN(v, ".", 3)
	if len(segments) != 3 {
		return
	}
	major, _ = strconv.Atoi(segments[0])
	minor, _ = strconv.Atoi(segments[1])
	fixAndPre := strings.SplitN(segments[2], "-", 2)
	fix, _ = strconv.Atoi(fixAndPre[0])
	if len(fixAndPre) > 1 {
		pre, _ = strconv.Atoi(strings.TrimPrefix(fixAndPre[1], "pr"))
	}
	return
}

// ServerHeader is the value sent in the Server response header
func ServerHeader() string {
	return fmt.Sprintf("scriptsmgr/%s", VERSION)
}
