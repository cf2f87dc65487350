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
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rabbitstack/objexp/cmd/objexp/common"
	"github.com/rabbitstack/objexp/pkg/config"
	kerrors "github.com/rabbitstack/objexp/pkg/errors"
	"github.com/rabbitstack/objexp/pkg/handle"
	"github.com/rabbitstack/objexp/pkg/ps"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the handle table of the process",
	RunE:  watch,
}

var (
	watchConfig  = config.NewWithOpts(config.WithWatch())
	watchPid     uint32
	watchProcess string
)

func init() {
	watchConfig.MustViperize(watchCmd)
	watchCmd.Flags().Uint32Var(&watchPid, "pid", 0, "Identifier of the watched process")
	watchCmd.Flags().StringVar(&watchProcess, "process", "", "Image name of the watched process")
}

func watch(cmd *cobra.Command, args []string) error {
	if err := common.Init(watchConfig, true); err != nil {
		return err
	}
	pid, err := resolvePid(watchPid, watchProcess)
	if err != nil {
		return err
	}
	if pid == 0 {
		return errors.New("either --pid or --process is required")
	}
	eng, err := common.NewEngine(watchConfig)
	if err != nil {
		return err
	}
	defer eng.Close()
	if err := eng.Manager.Registry().Refresh(); err != nil {
		return err
	}

	tracker := eng.Tracker(pid, watchConfig.Handle.HighlightDuration)
	if _, err := tracker.Poll(); err != nil {
		return err
	}
	names := ps.NewNames(ps.DefaultCacheSize, ps.DefaultTTL)
	fmt.Fprintf(os.Stdout, "Watching %s every %v. Press Ctrl-C to stop\n", processLabel(names, pid), watchConfig.Handle.PollInterval)
	renderTracked(os.Stdout, tracker.Handles())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	tick := time.NewTicker(watchConfig.Handle.PollInterval)
	defer tick.Stop()

	for {
		select {
		case <-stop:
			return nil
		case now := <-tick.C:
			diff, err := tracker.Poll()
			if errors.Is(err, kerrors.ErrProcessExited) {
				fmt.Fprintf(os.Stdout, "%s exited\n", processLabel(names, pid))
				return nil
			}
			if err != nil {
				log.Warnf("unable to poll handles of pid %d: %v", pid, err)
				continue
			}
			printDiff(os.Stdout, now, diff)
			// purges expired highlights and closed handles
			tracker.Highlights(now)
		}
	}
}

func renderTracked(w io.Writer, handles []*handle.Handle) {
	t := newTable(w, table.Row{"Handle", "Type", "Name", "Object", "Access", "Attributes"})
	for _, h := range handles {
		t.AppendRow(trackedRow(h))
	}
	t.AppendFooter(table.Row{"Total", formatCount(len(handles))})
	t.Render()
}

func trackedRow(h *handle.Handle) table.Row {
	return table.Row{
		formatValue(h.Value),
		h.TypeName,
		h.Name,
		formatAddress(h.Object),
		handle.DecodeAccess(h.TypeName, h.GrantedAccess),
		h.AttributesString(),
	}
}

// diffLine renders the new or closed handle.
func diffLine(ts time.Time, h *handle.Handle, closed bool) string {
	sign, color := "+", text.FgGreen
	if closed {
		sign, color = "-", text.FgRed
	}
	line := fmt.Sprintf("%s %s %-8s %-16s %s", ts.Format("15:04:05.000"), sign, formatValue(h.Value), h.TypeName, h.Name)
	return color.Sprint(line)
}

func printDiff(w io.Writer, ts time.Time, diff handle.Diff) {
	for _, h := range diff.Closed {
		fmt.Fprintln(w, diffLine(ts, h, true))
	}
	for _, h := range diff.New {
		fmt.Fprintln(w, diffLine(ts, h, false))
	}
}
