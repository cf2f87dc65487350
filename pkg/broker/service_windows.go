//go:build windows

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

package broker

import (
	"time"

	"github.com/rabbitstack/objexp/pkg/config"
	"github.com/rabbitstack/objexp/pkg/sys"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/eventlog"
)

// ServiceName is the name under which the broker runs as Windows service.
const ServiceName = "objexp-broker"

type service struct {
	config config.BrokerConfig
	evtlog *eventlog.Log
}

func (s *service) Execute(args []string, r <-chan svc.ChangeRequest, changes chan<- svc.Status) (bool, uint32) {
	const cmdsAccepted = svc.AcceptStop | svc.AcceptShutdown
	changes <- svc.Status{State: svc.StartPending}

	srv, err := Start(s.config)
	if err != nil {
		if s.evtlog != nil {
			_ = s.evtlog.Error(0xc000000B, err.Error())
		}
		log.Errorf("unable to start broker: %v", err)
		changes <- svc.Status{State: svc.Stopped}
		return false, 1
	}
	changes <- svc.Status{State: svc.Running, Accepts: cmdsAccepted}

loop:
	for {
		c := <-r
		switch c.Cmd {
		case svc.Interrogate:
			changes <- c.CurrentStatus
			time.Sleep(100 * time.Millisecond)
			changes <- c.CurrentStatus
		case svc.Stop, svc.Shutdown:
			break loop
		}
	}

	changes <- svc.Status{State: svc.StopPending}
	_ = srv.Close()
	changes <- svc.Status{State: svc.Stopped}

	return true, 0
}

// IsService determines if the broker was launched by the service control manager.
func IsService() bool { return sys.IsWindowsService() }

// RunService runs the broker under the service control manager.
func RunService(c config.BrokerConfig) error {
	evtlog, err := eventlog.Open(ServiceName)
	if err != nil {
		// the event source is optional
		evtlog = nil
	} else {
		defer evtlog.Close()
	}
	err = svc.Run(ServiceName, &service{config: c, evtlog: evtlog})
	if err != nil && evtlog != nil {
		_ = evtlog.Error(0xc0000008, err.Error())
	}
	return err
}
