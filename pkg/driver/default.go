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

package driver

import (
	"sync"

	"github.com/rabbitstack/objexp/pkg/config"
	log "github.com/sirupsen/logrus"
)

var (
	once   sync.Once
	mu     sync.Mutex
	client *Client
	err    error
	cfg    = config.DriverConfig{
		Transport: config.PipeTransport,
		Device:    `\\.\KObjExp`,
		Pipe:      "npipe:///objexp-broker",
	}
)

// Configure sets the options used to open the process-wide client. It has no
// effect once the client is opened.
func Configure(c config.DriverConfig) {
	mu.Lock()
	defer mu.Unlock()
	cfg = c
}

// Default returns the process-wide client. The channel is opened on first
// use, and the outcome of that attempt is returned to all callers.
func Default() (*Client, error) {
	once.Do(func() {
		mu.Lock()
		c := cfg
		mu.Unlock()
		var t Transport
		t, err = Open(c)
		if err != nil {
			log.Warnf("unable to open the broker channel: %v", err)
			return
		}
		client, err = connect(t)
		if err != nil {
			log.Warnf("broker version negotiation failed: %v", err)
		}
	})
	return client, err
}

// connect wraps the transport into the client once the broker protocol
// version is negotiated. The transport is closed if negotiation fails.
func connect(t Transport) (*Client, error) {
	c := NewClient(t)
	ver, err := c.Negotiate()
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	log.Debugf("broker protocol version %s", ver)
	return c, nil
}

// Close releases the process-wide client.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if client == nil {
		return nil
	}
	return client.Close()
}
