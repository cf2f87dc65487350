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
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rabbitstack/objexp/cmd/objexp/common"
	"github.com/rabbitstack/objexp/pkg/config"
	"github.com/spf13/cobra"
)

var dirCmd = &cobra.Command{
	Use:   "dir [path]",
	Short: "List the object manager directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  listDir,
}

var dirConfig = config.NewWithOpts(config.WithEnumerate())

func init() {
	dirConfig.MustViperize(dirCmd)
}

func listDir(cmd *cobra.Command, args []string) error {
	if err := common.Init(dirConfig, false); err != nil {
		return err
	}
	path := `\`
	if len(args) > 0 {
		path = args[0]
	}
	eng, err := common.NewEngine(dirConfig)
	if err != nil {
		return err
	}
	defer eng.Close()

	entries, err := eng.Manager.EnumDirectory(path)
	if err != nil {
		return err
	}
	t := newTable(os.Stdout, table.Row{"Name", "Type", "Target"})
	t.SetTitle(path)
	t.SortBy([]table.SortBy{{Name: "Type"}, {Name: "Name"}})
	for _, e := range entries {
		t.AppendRow(dirRow(e))
	}
	t.AppendFooter(table.Row{"Total", formatCount(len(entries))})
	t.Render()
	return nil
}
