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
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rabbitstack/objexp/pkg/broker"
	"github.com/rabbitstack/objexp/pkg/driver"
	ver "github.com/rabbitstack/objexp/pkg/util/version"
	"github.com/spf13/cobra"
)

// set through linker flags
var (
	version string
	commit  string
	built   string
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version info",
	RunE:  versionFn,
}

func versionFn(cmd *cobra.Command, args []string) error {
	ver.Set(version)
	v, err := ver.New(version, commit, built)
	if err != nil {
		return err
	}
	proto, err := driver.ParseVersion(broker.ProtocolVersion)
	if err != nil {
		return err
	}
	v.Render(os.Stdout, table.Row{"Broker protocol", fmt.Sprintf("%d.%d", proto.Segments()[0], proto.Segments()[1])})
	return nil
}
