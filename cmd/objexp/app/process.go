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

package app

import (
	"fmt"
	"strings"

	"github.com/rabbitstack/objexp/pkg/ps"
)

var processExists = ps.Exists

// resolvePid returns the process identifier given either directly or
// through the image name. The image name must identify a single process.
func resolvePid(pid uint32, image string) (uint32, error) {
	if pid != 0 {
		if !processExists(pid) {
			return 0, fmt.Errorf("process %d is not running", pid)
		}
		return pid, nil
	}
	if image == "" {
		return 0, nil
	}
	procs, err := ps.FindByName(image)
	if err != nil {
		return 0, err
	}
	return pickProcess(image, procs)
}

func pickProcess(image string, procs []ps.Process) (uint32, error) {
	switch len(procs) {
	case 0:
		return 0, fmt.Errorf("no running process matches %q", image)
	case 1:
		return procs[0].Pid, nil
	default:
		pids := make([]string, len(procs))
		for i, p := range procs {
			pids[i] = fmt.Sprintf("%d", p.Pid)
		}
		return 0, fmt.Errorf("%q matches multiple processes (%s). Use --pid instead", image, strings.Join(pids, ", "))
	}
}
