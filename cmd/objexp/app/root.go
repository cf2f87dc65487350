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
	"errors"
	"runtime"

	"github.com/spf13/cobra"
)

// RootCmd is the entrance to objexp CLI
var RootCmd = &cobra.Command{
	Use:   "objexp",
	Short: "Explore kernel objects and handles",
	Long: `
	objexp inspects the state of the Windows object manager. It lists object
	types along with their usage counters, open handles grouped by the kernel
	objects they reference and the processes owning them. Privileged actions,
	such as duplicating or closing handles of other processes, go through the
	broker that objexp can run as a Windows service.
	`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if runtime.GOOS != "windows" {
			return errors.New("objexp can only be run on Windows operating systems")
		}
		if runtime.GOARCH == "386" {
			return errors.New("objexp can't be run on 32-bits Windows operating systems")
		}
		return nil
	},
}

func init() {
	RootCmd.AddCommand(typesCmd)
	RootCmd.AddCommand(handlesCmd)
	RootCmd.AddCommand(objectsCmd)
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(dirCmd)
	RootCmd.AddCommand(closeCmd)
	RootCmd.AddCommand(statsCmd)
	RootCmd.AddCommand(brokerCmd)
	RootCmd.AddCommand(versionCmd)
}
