//go:build windows

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

package sys

import (
	"bytes"
	"encoding/binary"
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/windows"
)

const (
	// SeDebugPrivilege is the name of the privilege used to debug programs.
	SeDebugPrivilege = "SeDebugPrivilege"
)

// privilegeEnabled is the attribute bit that enables the privilege.
const privilegeEnabled uint32 = 0x00000002

// lookupPrivileges maps privilege names to LUID values.
func lookupPrivileges(names []string) ([]windows.LUID, error) {
	luids := make([]windows.LUID, 0, len(names))
	for _, name := range names {
		var luid windows.LUID
		if err := windows.LookupPrivilegeValue(nil, windows.StringToUTF16Ptr(name), &luid); err != nil {
			return nil, errors.Wrapf(err, "LookupPrivilegeValue failed on '%v'", name)
		}
		luids = append(luids, luid)
	}
	return luids, nil
}

// EnableTokenPrivileges enables the specified privileges in the given
// token. The token must have TOKEN_ADJUST_PRIVILEGES access. If the token
// does not already contain the privilege it cannot be enabled.
func EnableTokenPrivileges(token windows.Token, privileges ...string) error {
	luids, err := lookupPrivileges(privileges)
	if err != nil {
		return err
	}

	var b bytes.Buffer
	if err := binary.Write(&b, binary.LittleEndian, uint32(len(luids))); err != nil {
		return err
	}
	for _, luid := range luids {
		if err := binary.Write(&b, binary.LittleEndian, windows.LUIDAndAttributes{Luid: luid, Attributes: privilegeEnabled}); err != nil {
			return err
		}
	}

	privs := (*windows.Tokenprivileges)(unsafe.Pointer(&b.Bytes()[0]))
	err = windows.AdjustTokenPrivileges(token, false, privs, uint32(b.Len()), nil, nil)
	if err == windows.ERROR_NOT_ALL_ASSIGNED {
		return errors.Wrap(err, "not all privileges were assigned")
	}
	return err
}

// SetDebugPrivilege enables SeDebugPrivilege in the token of the current process.
func SetDebugPrivilege() error {
	var token windows.Token
	if err := windows.OpenProcessToken(windows.CurrentProcess(), windows.TOKEN_ADJUST_PRIVILEGES|windows.TOKEN_QUERY, &token); err != nil {
		return errors.Wrap(err, "unable to open process token")
	}
	//nolint:errcheck
	defer token.Close()
	return EnableTokenPrivileges(token, SeDebugPrivilege)
}
