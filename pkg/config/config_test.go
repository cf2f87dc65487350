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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromYamlFile(t *testing.T) {
	c := NewWithOpts(WithWatch(), WithBroker())

	err := c.flags.Parse([]string{"--config-file=_fixtures/objexp.yml"})
	require.NoError(t, c.viper.BindPFlags(c.flags))
	require.NoError(t, err)
	require.NoError(t, c.TryLoadFile(c.File()))

	require.NoError(t, c.Init())
	require.NoError(t, c.Validate())

	assert.False(t, c.DebugPrivilege)

	assert.Equal(t, time.Millisecond*10, c.Handle.NameTimeout)
	assert.False(t, c.Handle.SkipSelf)
	assert.Equal(t, uint32(1048576), c.Handle.BufferSize)
	assert.Equal(t, time.Second*2, c.Handle.PollInterval)
	assert.Equal(t, time.Second*3, c.Handle.HighlightDuration)
	assert.Equal(t, time.Second*10, c.Handle.DetailsTTL)

	assert.Equal(t, DeviceTransport, c.Driver.Transport)
	assert.Equal(t, `\\.\KObjExp`, c.Driver.Device)
	assert.Equal(t, time.Second*5, c.Driver.DialTimeout)

	assert.Equal(t, []string{"objexp.exe", "sysexp.exe"}, c.Broker.AllowedImages)
	assert.Equal(t, 100, c.Broker.Rate)
	assert.Equal(t, 10, c.Broker.Burst)

	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, "json", c.Log.Formatter)
	assert.Equal(t, 50, c.Log.MaxSize)
}

func TestNewFromJsonFile(t *testing.T) {
	c := NewWithOpts(WithWatch())

	err := c.flags.Parse([]string{"--config-file=_fixtures/objexp.json"})
	require.NoError(t, c.viper.BindPFlags(c.flags))
	require.NoError(t, err)
	require.NoError(t, c.TryLoadFile(c.File()))

	require.NoError(t, c.Init())
	require.NoError(t, c.Validate())

	assert.Equal(t, time.Millisecond*8, c.Handle.NameTimeout)
	assert.Equal(t, time.Millisecond*500, c.Handle.PollInterval)
	// unspecified options keep flag defaults
	assert.True(t, c.Handle.SkipSelf)
	assert.Equal(t, uint32(DefaultBufferSize), c.Handle.BufferSize)
	assert.Equal(t, PipeTransport, c.Driver.Transport)
	assert.Equal(t, time.Minute, c.Driver.DialTimeout)
}

func TestDefaults(t *testing.T) {
	c := NewWithOpts(WithWatch(), WithBroker())

	require.NoError(t, c.flags.Parse([]string{"--config-file=_fixtures/absent.yml"}))
	require.NoError(t, c.viper.BindPFlags(c.flags))
	require.NoError(t, c.Init())
	require.NoError(t, c.Validate())

	assert.True(t, c.DebugPrivilege)
	assert.Equal(t, DefaultNameTimeout, c.Handle.NameTimeout)
	assert.Equal(t, time.Second, c.Handle.PollInterval)
	assert.Equal(t, time.Second*2, c.Handle.HighlightDuration)
	assert.Equal(t, time.Second*5, c.Handle.DetailsTTL)
	assert.Equal(t, PipeTransport, c.Driver.Transport)
	assert.Equal(t, "npipe:///objexp-broker", c.Driver.Pipe)
	assert.Equal(t, []string{"objexp.exe", "sysexp.exe"}, c.Broker.AllowedImages)
	assert.Equal(t, "D:P(A;;GA;;;SY)(A;;GA;;;BA)", c.Broker.SecurityDescriptor)
}

func TestTryLoadFile(t *testing.T) {
	c := NewWithOpts(WithEnumerate())
	require.NoError(t, c.viper.BindPFlags(c.flags))
	// the default location may not exist
	require.NoError(t, c.TryLoadFile("_fixtures/absent.yml"))

	c = NewWithOpts(WithEnumerate())
	require.NoError(t, c.flags.Parse([]string{"--config-file=_fixtures/absent.yml"}))
	require.NoError(t, c.viper.BindPFlags(c.flags))
	require.Error(t, c.TryLoadFile(c.File()))
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("OBJEXP_HANDLE_NAME_TIMEOUT", "20ms")
	t.Setenv("OBJEXP_DRIVER_TRANSPORT", "device")

	c := NewWithOpts(WithEnumerate())
	require.NoError(t, c.viper.BindPFlags(c.flags))
	require.NoError(t, c.Init())

	assert.Equal(t, time.Millisecond*20, c.Handle.NameTimeout)
	assert.Equal(t, DeviceTransport, c.Driver.Transport)
}

func TestValidateInvalidFile(t *testing.T) {
	c := NewWithOpts(WithWatch())

	require.NoError(t, c.flags.Parse([]string{"--config-file=_fixtures/invalid.yml"}))
	require.NoError(t, c.viper.BindPFlags(c.flags))
	require.NoError(t, c.TryLoadFile(c.File()))

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "poll-interval")
	assert.Contains(t, err.Error(), "transport")
}

func TestValidatePollInterval(t *testing.T) {
	var tests = []struct {
		interval time.Duration
		valid    bool
	}{
		{time.Millisecond * 500, true},
		{time.Second, true},
		{time.Second * 2, true},
		{time.Second * 5, true},
		{time.Second * 3, false},
		{0, false},
	}

	for _, tt := range tests {
		t.Run(tt.interval.String(), func(t *testing.T) {
			c := HandleConfig{PollInterval: tt.interval}
			if tt.valid {
				assert.NoError(t, c.validatePollInterval())
			} else {
				assert.Error(t, c.validatePollInterval())
			}
		})
	}
}

func TestValidateTransport(t *testing.T) {
	assert.NoError(t, (&DriverConfig{Transport: PipeTransport}).validate())
	assert.NoError(t, (&DriverConfig{Transport: DeviceTransport}).validate())
	assert.Error(t, (&DriverConfig{Transport: "tcp"}).validate())
}
