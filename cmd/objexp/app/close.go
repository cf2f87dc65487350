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
	"fmt"
	"os"
	"strconv"

	"github.com/rabbitstack/objexp/cmd/objexp/common"
	"github.com/rabbitstack/objexp/pkg/config"
	"github.com/rabbitstack/objexp/pkg/handle"
	"github.com/spf13/cobra"
)

var closeCmd = &cobra.Command{
	Use:   "close",
	Short: "Close the handle in the owning process",
	RunE:  closeHandle,
}

var (
	closeConfig = config.NewWithOpts(config.WithEnumerate())
	closePid    uint32
	closeValue  string
)

func init() {
	closeConfig.MustViperize(closeCmd)
	closeCmd.Flags().Uint32Var(&closePid, "pid", 0, "Identifier of the process owning the handle")
	closeCmd.Flags().StringVar(&closeValue, "handle", "", "Handle value in decimal or hexadecimal notation")
}

// parseHandleValue parses the handle value. Values must be multiples of four.
func parseHandleValue(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid handle value %q: %v", s, err)
	}
	if v == 0 || v%4 != 0 {
		return 0, fmt.Errorf("%#x is not a valid handle value", v)
	}
	return uint32(v), nil
}

func closeHandle(cmd *cobra.Command, args []string) error {
	if err := common.Init(closeConfig, true); err != nil {
		return err
	}
	if closePid == 0 || closeValue == "" {
		return errors.New("both --pid and --handle are required")
	}
	value, err := parseHandleValue(closeValue)
	if err != nil {
		return err
	}
	eng, err := common.NewEngine(closeConfig)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.Manager.Enumerate(handle.Filter{Pid: closePid}); err != nil {
		return err
	}
	for _, h := range eng.Manager.Handles() {
		if h.Value != value {
			continue
		}
		if h.Attributes&handle.AttributeProtectFromClose != 0 {
			return fmt.Errorf("handle %#x of pid %d is protected from close", value, closePid)
		}
		if err := eng.Manager.CloseHandle(h); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Closed %s handle %#x of pid %d\n", h.TypeName, value, closePid)
		return nil
	}
	return fmt.Errorf("pid %d has no handle %#x", closePid, value)
}
