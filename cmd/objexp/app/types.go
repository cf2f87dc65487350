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
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rabbitstack/objexp/cmd/objexp/common"
	"github.com/rabbitstack/objexp/pkg/config"
	"github.com/spf13/cobra"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "Show object types and their usage counters",
	RunE:  listTypes,
}

var (
	typesConfig = config.NewWithOpts(config.WithEnumerate())

	showChanges   bool
	changesPeriod time.Duration
)

func init() {
	typesConfig.MustViperize(typesCmd)
	typesCmd.Flags().BoolVar(&showChanges, "changes", false, "Show counter changes between two consecutive refreshes")
	typesCmd.Flags().DurationVar(&changesPeriod, "period", time.Second, "Specifies the time between refreshes when showing changes")
}

func listTypes(cmd *cobra.Command, args []string) error {
	if err := common.Init(typesConfig, true); err != nil {
		return err
	}
	eng, err := common.NewEngine(typesConfig)
	if err != nil {
		return err
	}
	defer eng.Close()

	r := eng.Manager.Registry()
	if err := r.Refresh(); err != nil {
		return err
	}

	if showChanges {
		time.Sleep(changesPeriod)
		if err := r.Refresh(); err != nil {
			return err
		}
		t := newTable(os.Stdout, table.Row{"Type", "Counter", "Delta"})
		for _, c := range r.Changes() {
			t.AppendRow(changeRow(c))
		}
		t.Render()
		return nil
	}

	t := newTable(os.Stdout, table.Row{"Type", "Index", "Handles", "Objects", "Peak Handles", "Peak Objects", "Paged Pool", "Non-Paged Pool"})
	for _, typ := range r.Types() {
		t.AppendRow(typeRow(typ))
	}
	totals := r.Totals()
	t.AppendFooter(table.Row{"Total", totals.Types, formatCount(totals.TotalHandles), formatCount(totals.TotalObjects), formatCount(totals.PeakHandles), formatCount(totals.PeakObjects)})
	t.Render()
	return nil
}
