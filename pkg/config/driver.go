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
	"time"

	kerrors "github.com/rabbitstack/objexp/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	driverTransport   = "driver.transport"
	driverDevice      = "driver.device"
	driverPipe        = "driver.pipe"
	driverDialTimeout = "driver.dial-timeout"

	// DeviceTransport designates the kernel driver control device
	DeviceTransport = "device"
	// PipeTransport designates the broker named pipe
	PipeTransport = "pipe"
)

// DriverConfig determines how the privileged broker is reached.
type DriverConfig struct {
	// Transport is the type of the control channel (device|pipe).
	Transport string `json:"transport" yaml:"transport"`
	// Device is the path of the kernel driver control device.
	Device string `json:"device" yaml:"device"`
	// Pipe is the address of the broker named pipe.
	Pipe string `json:"pipe" yaml:"pipe"`
	// DialTimeout specifies for how long the pipe transport waits for the broker to become available.
	DialTimeout time.Duration `json:"dial-timeout" yaml:"dial-timeout"`
}

func (c *DriverConfig) initFromViper(v *viper.Viper) {
	c.Transport = v.GetString(driverTransport)
	c.Device = v.GetString(driverDevice)
	c.Pipe = v.GetString(driverPipe)
	c.DialTimeout = v.GetDuration(driverDialTimeout)
}

func (c *DriverConfig) addFlags(flags *pflag.FlagSet) {
	flags.String(driverTransport, PipeTransport, "Specifies the control channel transport (device|pipe)")
	flags.String(driverDevice, `\\.\KObjExp`, "Specifies the path of the kernel driver control device")
	flags.String(driverPipe, "npipe:///objexp-broker", "Specifies the address of the broker named pipe")
	flags.Duration(driverDialTimeout, 30*time.Second, "Specifies for how long to wait for the broker pipe to become available")
}

func (c *DriverConfig) validate() error {
	switch c.Transport {
	case DeviceTransport, PipeTransport:
		return nil
	default:
		return kerrors.ErrUnsupportedTransport(c.Transport)
	}
}
