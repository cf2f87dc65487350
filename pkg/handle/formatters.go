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

package handle

import (
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Formatter renders type-specific details of the duplicated handle.
type Formatter func(dup uintptr, h *Handle) string

// Formatters maps type indices to detail formatters.
type Formatters struct {
	byIndex map[uint16]Formatter
}

// NewFormatters binds the formatters of the catalogue to the type indices
// of the populated registry. Types missing from the registry are skipped.
func NewFormatters(r *Registry, catalogue map[string]Formatter) *Formatters {
	f := &Formatters{byIndex: make(map[uint16]Formatter, len(catalogue))}
	for name, fn := range catalogue {
		t, err := r.ByName(name)
		if err != nil {
			log.Debugf("no %s type for the detail formatter", name)
			continue
		}
		f.byIndex[t.Index] = fn
	}
	return f
}

// Has reports whether the type has the formatter.
func (f *Formatters) Has(typeIndex uint16) bool {
	_, ok := f.byIndex[typeIndex]
	return ok
}

// Format renders details of the handle. Types without the formatter yield
// an empty string.
func (f *Formatters) Format(dup uintptr, h *Handle) string {
	fn, ok := f.byIndex[h.TypeIndex]
	if !ok {
		return ""
	}
	return fn(dup, h)
}

const (
	hklmPrefix = `\REGISTRY\MACHINE`
	hkcrPrefix = `\REGISTRY\MACHINE\SOFTWARE\CLASSES`
	hkuPrefix  = `\REGISTRY\USER`
)

var (
	userSIDOnce sync.Once
	userSID     string
	// lookupUserSID resolves the SID of the current user
	lookupUserSID = func() string { return "" }
)

func currentUserSID() string {
	userSIDOnce.Do(func() { userSID = lookupUserSID() })
	return userSID
}

// FormatKey converts the native registry key name to the name rooted at
// the well-known hive. Keys under the given user SID are rooted at HKCU.
func FormatKey(name, sid string) string {
	upper := strings.ToUpper(name)
	switch {
	case hasPathPrefix(upper, hkcrPrefix):
		return rooted("HKCR", name, len(hkcrPrefix))
	case hasPathPrefix(upper, hklmPrefix):
		return rooted("HKLM", name, len(hklmPrefix))
	}
	if sid != "" {
		user := hkuPrefix + `\` + strings.ToUpper(sid)
		if classes := user + `_CLASSES`; hasPathPrefix(upper, classes) {
			return rooted(`HKCU\Software\Classes`, name, len(classes))
		}
		if hasPathPrefix(upper, user) {
			return rooted("HKCU", name, len(user))
		}
	}
	if hasPathPrefix(upper, hkuPrefix) {
		return rooted("HKU", name, len(hkuPrefix))
	}
	return name
}

func hasPathPrefix(s, prefix string) bool {
	return s == prefix || strings.HasPrefix(s, prefix+`\`)
}

func rooted(root, name string, n int) string {
	if len(name) > n+1 {
		return root + `\` + name[n+1:]
	}
	return root
}

func formatEvent(typ uint32, state int32) string {
	kind := "Notification"
	if typ == 1 {
		kind = "Synchronization"
	}
	signaled := "False"
	if state != 0 {
		signaled = "True"
	}
	return fmt.Sprintf("Type: %s, Signaled: %s", kind, signaled)
}

func formatMutant(count int32, abandoned bool) string {
	return fmt.Sprintf("Count: %d, Abandoned: %t", count, abandoned)
}

func formatSemaphore(count, maximum int32) string {
	return fmt.Sprintf("Count: %d, Max: %d", count, maximum)
}

var sectionAttributes = []struct {
	mask uint32
	name string
}{
	{0x00800000, "Based"},
	{0x01000000, "Image"},
	{0x02000000, "Reserve"},
	{0x04000000, "NoCache"},
	{0x08000000, "Commit"},
	{0x10000000, "WriteCombine"},
	{0x20000000, "ImageNoExecute"},
	{0x80000000, "LargePages"},
}

func formatSection(size int64, attrs uint32) string {
	var names []string
	for _, a := range sectionAttributes {
		if attrs&a.mask != 0 {
			names = append(names, a.name)
		}
	}
	if len(names) == 0 {
		return fmt.Sprintf("Size: %d", size)
	}
	return fmt.Sprintf("Size: %d, Attributes: %s", size, strings.Join(names, " | "))
}

func formatProcess(pid uint32, image string) string {
	if image == "" {
		return fmt.Sprintf("PID: %d", pid)
	}
	return fmt.Sprintf("PID: %d, Image: %s", pid, image)
}

func formatThread(tid, pid uint32) string {
	return fmt.Sprintf("TID: %d, PID: %d", tid, pid)
}

func formatFile(path string, isDir bool) string {
	if isDir {
		return "Directory: " + path
	}
	return path
}

func formatAlpcPort(flags, seqno uint32) string {
	return fmt.Sprintf("Flags: %#x, Seqno: %d", flags, seqno)
}

func formatJob(active, total uint32) string {
	return fmt.Sprintf("Active processes: %d, Total processes: %d", active, total)
}
