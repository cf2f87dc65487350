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

	"github.com/rabbitstack/objexp/cmd/objexp/common"
	"github.com/rabbitstack/objexp/pkg/config"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show total handle and object counts",
	RunE:  stats,
}

var statsConfig = config.NewWithOpts(config.WithEnumerate())

func init() {
	statsConfig.MustViperize(statsCmd)
}

func stats(cmd *cobra.Command, args []string) error {
	if err := common.Init(statsConfig, false); err != nil {
		return err
	}
	eng, err := common.NewEngine(statsConfig)
	if err != nil {
		return err
	}
	defer eng.Close()

	if err := eng.Manager.Registry().Refresh(); err != nil {
		return err
	}
	t := newTable(os.Stdout, nil)
	for _, row := range totalsRows(eng.Manager.Stats()) {
		t.AppendRow(row)
	}
	t.Render()
	return nil
}
