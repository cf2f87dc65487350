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
	"github.com/rabbitstack/objexp/pkg/handle"
	"github.com/rabbitstack/objexp/pkg/ps"
	"github.com/rabbitstack/objexp/pkg/util/spinner"
	"github.com/spf13/cobra"
)

var objectsCmd = &cobra.Command{
	Use:   "objects",
	Short: "Show kernel objects referenced by open handles",
	RunE:  listObjects,
}

var (
	objectsConfig = config.NewWithOpts(config.WithEnumerate())
	objectsFlags  viewFlags
)

func init() {
	objectsConfig.MustViperize(objectsCmd)
	objectsFlags.add(objectsCmd, "handles", true)
}

func listObjects(cmd *cobra.Command, args []string) error {
	if err := common.Init(objectsConfig, true); err != nil {
		return err
	}
	col, err := handle.ParseColumn(objectsFlags.sort)
	if err != nil {
		return err
	}
	filter, err := objectsFlags.filter(objectsConfig)
	if err != nil {
		return err
	}
	filter.Objects = true

	eng, err := common.NewEngine(objectsConfig)
	if err != nil {
		return err
	}
	defer eng.Close()

	sp := spinner.Show(os.Stderr, "Enumerating objects")
	err = eng.Manager.Enumerate(filter)
	sp.Stop()
	if err != nil {
		return err
	}

	objects := eng.Manager.Objects()
	handle.SortObjects(objects, col, objectsFlags.desc)

	names := ps.NewNames(ps.DefaultCacheSize, ps.DefaultTTL)
	t := newTable(os.Stdout, table.Row{"Object", "Type", "Name", "Handles", "Processes"})
	for _, o := range objects {
		t.AppendRow(objectRow(o, names))
	}
	t.AppendFooter(table.Row{"Total", formatCount(len(objects))})
	t.Render()
	return nil
}
