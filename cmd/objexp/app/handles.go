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

var handlesCmd = &cobra.Command{
	Use:   "handles",
	Short: "Show open handles",
	RunE:  listHandles,
}

// viewFlags are shared by the handles and objects views.
type viewFlags struct {
	typ       string
	pid       uint32
	process   string
	prefix    string
	namedOnly bool
	sort      string
	desc      bool
}

func (f *viewFlags) add(cmd *cobra.Command, sortBy string, desc bool) {
	cmd.Flags().StringVar(&f.typ, "type", "", "Shows only handles to objects of the given type")
	cmd.Flags().StringVar(&f.prefix, "prefix", "", "Shows only handles whose object name starts with the prefix")
	cmd.Flags().BoolVar(&f.namedOnly, "named-only", false, "Shows only handles to named objects")
	cmd.Flags().StringVar(&f.sort, "sort", sortBy, "Specifies the column the rows are sorted by")
	cmd.Flags().BoolVar(&f.desc, "desc", desc, "Sorts rows in descending order")
}

func (f *viewFlags) filter(c *config.Config) (handle.Filter, error) {
	pid, err := resolvePid(f.pid, f.process)
	if err != nil {
		return handle.Filter{}, err
	}
	return handle.Filter{
		Type:      f.typ,
		Pid:       pid,
		Prefix:    f.prefix,
		NamedOnly: f.namedOnly,
		SkipSelf:  c.Handle.SkipSelf,
	}, nil
}

var (
	handlesConfig = config.NewWithOpts(config.WithEnumerate())
	handlesFlags  viewFlags
	withDetails   bool
)

func init() {
	handlesConfig.MustViperize(handlesCmd)
	handlesFlags.add(handlesCmd, "value", false)
	handlesCmd.Flags().Uint32Var(&handlesFlags.pid, "pid", 0, "Shows only handles owned by the process with the given identifier")
	handlesCmd.Flags().StringVar(&handlesFlags.process, "process", "", "Shows only handles owned by the process with the given image name")
	handlesCmd.Flags().BoolVar(&withDetails, "details", false, "Renders type-specific object details")
}

func listHandles(cmd *cobra.Command, args []string) error {
	if err := common.Init(handlesConfig, true); err != nil {
		return err
	}
	col, err := handle.ParseColumn(handlesFlags.sort)
	if err != nil {
		return err
	}
	filter, err := handlesFlags.filter(handlesConfig)
	if err != nil {
		return err
	}
	eng, err := common.NewEngine(handlesConfig)
	if err != nil {
		return err
	}
	defer eng.Close()

	sp := spinner.Show(os.Stderr, "Enumerating handles")
	err = eng.Manager.Enumerate(filter)
	sp.Stop()
	if err != nil {
		return err
	}

	handles := eng.Manager.Handles()
	if col == handle.ColumnName {
		for _, h := range handles {
			eng.Manager.ResolveName(h)
		}
	}
	handle.SortHandles(handles, col, handlesFlags.desc)

	header := table.Row{"Process", "Handle", "Type", "Name", "Object", "Access", "Attributes"}
	var details func(*handle.Handle) string
	if withDetails {
		header = append(header, "Details")
		details = eng.Describe
	}
	names := ps.NewNames(ps.DefaultCacheSize, ps.DefaultTTL)
	t := newTable(os.Stdout, header)
	for _, h := range handles {
		t.AppendRow(handleRow(h, eng.Manager.ResolveName(h), names, details))
	}
	t.AppendFooter(table.Row{"Total", formatCount(len(handles))})
	t.Render()
	return nil
}
