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

package common

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rabbitstack/objexp/pkg/broker"
	"github.com/rabbitstack/objexp/pkg/config"
	log "github.com/sirupsen/logrus"
)

// RunBroker runs the broker pipe server. When started by the service
// control manager the broker runs as a service, otherwise it serves until
// interrupted.
func RunBroker(c config.BrokerConfig) error {
	if broker.IsService() {
		return broker.RunService(c)
	}
	srv, err := broker.Start(c)
	if err != nil {
		return err
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down the broker")
	return srv.Close()
}
