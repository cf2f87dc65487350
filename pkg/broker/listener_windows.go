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
	"fmt"
	"net"

	"github.com/Microsoft/go-winio"
	"github.com/rabbitstack/objexp/pkg/config"
	"github.com/rabbitstack/objexp/pkg/sys"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

// Listen creates the named pipe listener protected by the security descriptor.
func Listen(pipe, descriptor string) (net.Listener, error) {
	l, err := winio.ListenPipe(PipePath(pipe), &winio.PipeConfig{SecurityDescriptor: descriptor})
	if err != nil {
		return nil, fmt.Errorf("fail to listen on the %q pipe: %v", pipe, err)
	}
	return l, nil
}

// IdentifyPipeClient resolves the process id and the image path of the pipe client.
func IdentifyPipeClient(conn net.Conn) (Caller, error) {
	f, ok := conn.(interface{ Fd() uintptr })
	if !ok {
		return Caller{}, fmt.Errorf("%T is not a named pipe connection", conn)
	}
	var pid uint32
	if err := sys.GetNamedPipeClientProcessId(windows.Handle(f.Fd()), &pid); err != nil {
		return Caller{}, fmt.Errorf("unable to get pipe client process id: %v", err)
	}
	image, err := sys.ImagePathByID(pid)
	if err != nil {
		return Caller{Pid: pid}, fmt.Errorf("unable to get image path for pid %d: %v", pid, err)
	}
	return Caller{Pid: pid, Image: image}, nil
}

// Start brings up the broker on the configured pipe. Connections are served
// in the background until the returned server is closed.
func Start(c config.BrokerConfig) (*Server, error) {
	l, err := Listen(c.Pipe, c.SecurityDescriptor)
	if err != nil {
		return nil, err
	}
	srv := NewServer(New(NewKernel(config.DefaultBufferSize)), NewGate(c.AllowedImages), c.Rate, c.Burst)
	go func() {
		if err := srv.Serve(l, IdentifyPipeClient); err != nil {
			log.Errorf("broker stopped serving: %v", err)
		}
	}()
	log.Infof("broker listening on %s", PipePath(c.Pipe))
	return srv, nil
}
