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

package handle

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// Column identifies the column handles and objects are sorted by.
type Column uint8

const (
	ColumnValue Column = iota
	ColumnPid
	ColumnType
	ColumnName
	ColumnAddress
	ColumnAccess
	ColumnAttributes
	ColumnHandles
)

var columns = map[string]Column{
	"handle":     ColumnValue,
	"value":      ColumnValue,
	"pid":        ColumnPid,
	"type":       ColumnType,
	"name":       ColumnName,
	"address":    ColumnAddress,
	"object":     ColumnAddress,
	"access":     ColumnAccess,
	"attributes": ColumnAttributes,
	"handles":    ColumnHandles,
}

// ParseColumn parses the column name.
func ParseColumn(s string) (Column, error) {
	c, ok := columns[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown sort column %q", s)
	}
	return c, nil
}

func compareHandles(c Column, a, b *Handle) int {
	switch c {
	case ColumnPid:
		return cmp.Compare(a.Pid, b.Pid)
	case ColumnType:
		return strings.Compare(a.TypeName, b.TypeName)
	case ColumnName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case ColumnAddress:
		return cmp.Compare(a.Object, b.Object)
	case ColumnAccess:
		return cmp.Compare(a.GrantedAccess, b.GrantedAccess)
	case ColumnAttributes:
		return cmp.Compare(a.Attributes, b.Attributes)
	default:
		return cmp.Compare(a.Value, b.Value)
	}
}

func compareObjects(c Column, a, b *Object) int {
	switch c {
	case ColumnType:
		return strings.Compare(a.TypeName, b.TypeName)
	case ColumnName:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	case ColumnHandles:
		return cmp.Compare(a.HandleCount, b.HandleCount)
	default:
		return cmp.Compare(a.Address, b.Address)
	}
}

// SortHandles sorts handles in place by the column. Equal handles keep
// their relative order.
func SortHandles(handles []*Handle, c Column, desc bool) {
	slices.SortStableFunc(handles, func(a, b *Handle) int {
		if desc {
			return compareHandles(c, b, a)
		}
		return compareHandles(c, a, b)
	})
}

// SortObjects sorts objects in place by the column. Equal objects keep
// their relative order.
func SortObjects(objects []*Object, c Column, desc bool) {
	slices.SortStableFunc(objects, func(a, b *Object) int {
		if desc {
			return compareObjects(c, b, a)
		}
		return compareObjects(c, a, b)
	})
}
