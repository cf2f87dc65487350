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

package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	nameTimeout       = "handle.name-timeout"
	skipSelf          = "handle.skip-self"
	bufferSize        = "handle.buffer-size"
	pollInterval      = "handle.poll-interval"
	highlightDuration = "handle.highlight-duration"
	detailsTTL        = "handle.details-ttl"

	// DefaultBufferSize is the initial size of the buffer for querying the system handle table
	DefaultBufferSize = 1 << 25
	// DefaultNameTimeout is the time allotted to file object name queries
	DefaultNameTimeout = 6 * time.Millisecond
)

// PollIntervals contains the permitted handle tracker poll intervals.
var PollIntervals = []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second, 5 * time.Second}

// HandleConfig contains the settings that influence handle enumeration and tracking.
type HandleConfig struct {
	// NameTimeout is the maximum time allotted to resolving the name of the file object.
	NameTimeout time.Duration `json:"name-timeout" yaml:"name-timeout" mapstructure:"name-timeout"`
	// SkipSelf determines if handles of the current process are excluded from enumeration.
	SkipSelf bool `json:"skip-self" yaml:"skip-self" mapstructure:"skip-self"`
	// BufferSize is the initial size of the system handle table query buffer.
	BufferSize uint32 `json:"buffer-size" yaml:"buffer-size" mapstructure:"buffer-size"`
	// PollInterval specifies how often the handle tracker polls the process handle table.
	PollInterval time.Duration `json:"poll-interval" yaml:"poll-interval" mapstructure:"poll-interval"`
	// HighlightDuration is the time new and closed handles remain highlighted.
	HighlightDuration time.Duration `json:"highlight-duration" yaml:"highlight-duration" mapstructure:"highlight-duration"`
	// DetailsTTL specifies for how long per-type object details are cached.
	DetailsTTL time.Duration `json:"details-ttl" yaml:"details-ttl" mapstructure:"details-ttl"`
}

func (c *HandleConfig) initFromViper(v *viper.Viper) error {
	return decodeSection(v, "handle", c)
}

func (c *HandleConfig) addFlags(flags *pflag.FlagSet, watch bool) {
	flags.Duration(nameTimeout, DefaultNameTimeout, "Specifies the maximum time allotted to resolving the name of the file object")
	flags.Bool(skipSelf, true, "Determines if handles of the current process are excluded from enumeration")
	flags.Int(bufferSize, DefaultBufferSize, "Specifies the initial size in bytes of the system handle table query buffer")
	flags.Duration(detailsTTL, 5*time.Second, "Specifies for how long per-type object details are cached")
	if watch {
		flags.Duration(pollInterval, time.Second, "Specifies how often the process handle table is polled (500ms|1s|2s|5s)")
		flags.Duration(highlightDuration, 2*time.Second, "Specifies for how long new and closed handles remain highlighted")
	}
}

func (c *HandleConfig) validatePollInterval() error {
	for _, d := range PollIntervals {
		if c.PollInterval == d {
			return nil
		}
	}
	return fmt.Errorf("%s is not a valid poll interval. Allowed intervals are %v", c.PollInterval, PollIntervals)
}
