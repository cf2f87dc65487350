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
	"context"
	"errors"
	"time"

	"github.com/Microsoft/go-winio"
	"github.com/cenkalti/backoff/v4"
	"github.com/rabbitstack/objexp/pkg/broker"
	kerrors "github.com/rabbitstack/objexp/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/windows"
)

// DialPipe connects to the broker named pipe. While the pipe doesn't exist or
// all its instances are busy, dialing is retried with exponential back-off
// until the timeout elapses.
func DialPipe(addr string, timeout time.Duration) (*ConnTransport, error) {
	if timeout <= 0 {
		timeout = time.Second * 30
	}
	path := broker.PipePath(addr)
	b := &backoff.ExponentialBackOff{
		InitialInterval:     time.Millisecond * 200,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         time.Second * 5,
		MaxElapsedTime:      timeout,
		Stop:                backoff.Stop,
		Clock:               backoff.SystemClock,
	}
	b.Reset()

	var t *ConnTransport
	op := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		conn, err := winio.DialPipeContext(ctx, path)
		if err != nil {
			if isPipeNotReady(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		t, err = NewConnTransport(conn)
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}
	notify := func(err error, d time.Duration) {
		log.Warnf("broker pipe not ready (%v). Trying to dial in %v...", err, d)
	}
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		if errors.Is(err, kerrors.ErrChannelDenied) {
			return nil, err
		}
		return nil, kerrors.ErrBrokerUnavailable(path, err)
	}
	return t, nil
}

func isPipeNotReady(err error) bool {
	return errors.Is(err, windows.ERROR_FILE_NOT_FOUND) ||
		errors.Is(err, windows.ERROR_PIPE_BUSY) ||
		errors.Is(err, winio.ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded)
}
