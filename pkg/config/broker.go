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
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	brokerPipe               = "broker.pipe"
	brokerAllowedImages      = "broker.allowed-images"
	brokerSecurityDescriptor = "broker.security-descriptor"
	brokerRate               = "broker.rate"
	brokerBurst              = "broker.burst"
)

// BrokerConfig contains the privileged broker settings.
type BrokerConfig struct {
	// Pipe is the address of the named pipe the broker listens on.
	Pipe string `json:"pipe" yaml:"pipe" mapstructure:"pipe"`
	// AllowedImages contains image names permitted to open the control channel.
	AllowedImages []string `json:"allowed-images" yaml:"allowed-images" mapstructure:"allowed-images"`
	// SecurityDescriptor is the SDDL string applied to the broker pipe.
	SecurityDescriptor string `json:"security-descriptor" yaml:"security-descriptor" mapstructure:"security-descriptor"`
	// Rate is the number of requests per second each client may issue.
	Rate int `json:"rate" yaml:"rate" mapstructure:"rate"`
	// Burst is the maximum burst of requests per client.
	Burst int `json:"burst" yaml:"burst" mapstructure:"burst"`
}

func (c *BrokerConfig) initFromViper(v *viper.Viper) error {
	return decodeSection(v, "broker", c)
}

func (c *BrokerConfig) addFlags(flags *pflag.FlagSet) {
	flags.String(brokerPipe, "npipe:///objexp-broker", "Specifies the address of the named pipe the broker listens on")
	flags.StringSlice(brokerAllowedImages, []string{"objexp.exe", "sysexp.exe"}, "Comma-separated list of image names permitted to open the control channel")
	// SYSTEM and built-in administrators
	flags.String(brokerSecurityDescriptor, "D:P(A;;GA;;;SY)(A;;GA;;;BA)", "Specifies the SDDL security descriptor applied to the broker pipe")
	flags.Int(brokerRate, 2000, "Specifies the number of requests per second each client may issue")
	flags.Int(brokerBurst, 500, "Specifies the maximum burst of requests per client")
}
