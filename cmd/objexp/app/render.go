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
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rabbitstack/objexp/pkg/handle"
	"github.com/rabbitstack/objexp/pkg/ps"
)

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	if header != nil {
		t.AppendHeader(header)
	}
	return t
}

// formatAddress renders the kernel object address. Unknown addresses are blank.
func formatAddress(addr uint64) string {
	if addr == 0 {
		return ""
	}
	return fmt.Sprintf("0x%016X", addr)
}

func formatValue(v uint32) string { return fmt.Sprintf("%#x", v) }

func formatCount[T ~uint32 | ~uint64 | ~int](n T) string { return humanize.Comma(int64(n)) }

func processLabel(names *ps.Names, pid uint32) string {
	name := names.Name(pid)
	if name == "" {
		return fmt.Sprintf("<unknown> (%d)", pid)
	}
	return fmt.Sprintf("%s (%d)", name, pid)
}

// typeRow renders the type registry row.
func typeRow(t *handle.ObjectType) table.Row {
	return table.Row{
		t.Name,
		t.Index,
		formatCount(t.TotalHandles),
		formatCount(t.TotalObjects),
		formatCount(t.PeakHandles),
		formatCount(t.PeakObjects),
		humanize.IBytes(uint64(t.PagedPoolUsage)),
		humanize.IBytes(uint64(t.NonPagedPoolUsage)),
	}
}

// changeRow renders the counter delta of the type.
func changeRow(c handle.TypeChange) table.Row {
	return table.Row{c.Type.Name, c.Kind, fmt.Sprintf("%+d", c.Delta)}
}

// handleRow renders the handle row. The details column is only rendered
// when the details function is given.
func handleRow(h *handle.Handle, name string, names *ps.Names, details func(*handle.Handle) string) table.Row {
	row := table.Row{
		processLabel(names, h.Pid),
		formatValue(h.Value),
		h.TypeName,
		name,
		formatAddress(h.Object),
		handle.DecodeAccess(h.TypeName, h.GrantedAccess),
		h.AttributesString(),
	}
	if details != nil {
		row = append(row, details(h))
	}
	return row
}

// objectRow renders the object row along with the owning processes.
func objectRow(o *handle.Object, names *ps.Names) table.Row {
	return table.Row{
		formatAddress(o.Address),
		o.TypeName,
		o.Name,
		o.HandleCount,
		owners(o, names),
	}
}

// owners lists distinct owning processes of the object in handle order.
func owners(o *handle.Object, names *ps.Names) string {
	seen := make(map[uint32]bool, len(o.Handles))
	procs := make([]string, 0, len(o.Handles))
	for _, h := range o.Handles {
		if seen[h.Pid] {
			continue
		}
		seen[h.Pid] = true
		procs = append(procs, processLabel(names, h.Pid))
	}
	return strings.Join(procs, ", ")
}

func dirRow(e handle.DirEntry) table.Row {
	return table.Row{e.Name, e.TypeName, e.Target}
}

func totalsRows(t handle.Totals) []table.Row {
	return []table.Row{
		{"Object types", formatCount(t.Types)},
		{"Handles", formatCount(t.TotalHandles)},
		{"Objects", formatCount(t.TotalObjects)},
		{"Peak handles", formatCount(t.PeakHandles)},
		{"Peak objects", formatCount(t.PeakObjects)},
	}
}
