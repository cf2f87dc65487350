/*
 * Copyright 2019-2020 by Nedim Sabic Sabic
 * https://www.fibratus.io
 * All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package version

import (
	"fmt"
	"io"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	semver "github.com/hashicorp/go-version"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Version stores the SemVer release information along with the
// commit that produced the release.
type Version struct {
	Major  int64
	Minor  int64
	Patch  int64
	Commit string
	Date   string
}

var versionRegexp = regexp.MustCompile(`^v?(\d+\.\d+\.\d+)$`)

var version string

// Set initializes the version string as global variable.
func Set(v string) { version = v }

// Get returns the version string.
func Get() string {
	if IsDev() {
		return "dev"
	}
	return version
}

// IsDev determines if this is a dev version.
func IsDev() bool { return version == "0.0.0" || version == "" }

// Sem returns a semver spec, or nil for dev versions.
func Sem() *semver.Version {
	if IsDev() {
		return nil
	}
	v, err := semver.NewSemver(version)
	if err != nil {
		return nil
	}
	return v
}

// New parses the version string and return the version instance.
func New(version, commit, date string) (Version, error) {
	if version == "" {
		return Version{Commit: commit, Date: date}, nil
	}
	toks := versionRegexp.FindStringSubmatch(version)
	if len(toks) == 0 {
		return Version{}, fmt.Errorf("invalid semver release: %s", version)
	}
	parts := strings.Split(toks[1], ".")
	major, _ := strconv.ParseInt(parts[0], 10, 64)
	minor, _ := strconv.ParseInt(parts[1], 10, 64)
	patch, _ := strconv.ParseInt(parts[2], 10, 64)

	return Version{
		Major:  major,
		Minor:  minor,
		Patch:  patch,
		Commit: commit,
		Date:   date,
	}, nil
}

// String returns the dotted version or dev.
func (v Version) String() string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return "dev"
	}
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Render writes the version information table. Extra rows are appended
// after the build information.
func (v Version) Render(w io.Writer, extra ...table.Row) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	t.AppendRow(table.Row{"Version", v.String()})
	t.AppendRow(table.Row{"Commit", v.Commit})
	t.AppendRow(table.Row{"Build date", v.Date})

	t.AppendSeparator()

	t.AppendRow(table.Row{"Go compiler", runtime.Version()})
	for _, row := range extra {
		t.AppendRow(row)
	}

	t.Render()
}
