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
	"github.com/rabbitstack/objexp/cmd/objexp/common"
	"github.com/rabbitstack/objexp/pkg/config"
	"github.com/spf13/cobra"
)

var brokerCmd = &cobra.Command{
	Use:   "broker",
	Short: "Run the privileged broker",
	Long: `
	Runs the broker that performs privileged object operations on behalf
	of objexp. The broker listens on the named pipe and accepts connections
	only from recognized client images. When started by the service control
	manager, the broker runs as a Windows service.
	`,
	RunE: runBroker,
}

var brokerConfig = config.NewWithOpts(config.WithBroker())

func init() {
	brokerConfig.MustViperize(brokerCmd)
}

func runBroker(cmd *cobra.Command, args []string) error {
	if err := common.Init(brokerConfig, true); err != nil {
		return err
	}
	return common.RunBroker(brokerConfig.Broker)
}
