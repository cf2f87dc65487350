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

package rotate

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config is the configuration for the rotate file hook.
type Config struct {
	Filename   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Level      logrus.Level
	Formatter  logrus.Formatter
}

// File represents the rotate file hook.
type File struct {
	mu     sync.Mutex
	config Config
	w      io.WriteCloser
	depth  int
	skip   int
}

// NewHook builds a new rotate file hook.
func NewHook(config Config) (*File, error) {
	if config.Filename == "" {
		return nil, fmt.Errorf("rotate hook requires the log file name")
	}
	if config.Formatter == nil {
		config.Formatter = &logrus.JSONFormatter{}
	}
	hook := &File{
		config: config,
		depth:  20,
		skip:   5,
		w: &lumberjack.Logger{
			Filename:   config.Filename,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
		},
	}
	return hook, nil
}

// Levels determines log levels that for which the logs are written.
func (hook *File) Levels() []logrus.Level {
	return logrus.AllLevels[:hook.config.Level+1]
}

// Fire is called by logrus when it is about to write the log entry.
func (hook *File) Fire(entry *logrus.Entry) error {
	modified := entry.WithField("source", hook.caller())
	modified.Level = entry.Level
	modified.Message = entry.Message
	modified.Time = entry.Time
	b, err := hook.config.Formatter.Format(modified)
	if err != nil {
		return err
	}
	hook.mu.Lock()
	defer hook.mu.Unlock()
	_, err = hook.w.Write(b)
	return err
}

// Close closes the underlying log file.
func (hook *File) Close() error {
	hook.mu.Lock()
	defer hook.mu.Unlock()
	return hook.w.Close()
}

// caller finds the first stack frame outside logrus and renders it as file:line.
func (hook *File) caller() string {
	for i := 0; i < hook.depth; i++ {
		_, file, line, ok := runtime.Caller(hook.skip + i)
		if !ok {
			return ""
		}
		file = trimPath(file)
		if strings.HasPrefix(file, "logrus/") || strings.HasPrefix(file, "logrus@") {
			continue
		}
		return fmt.Sprintf("%s:%d", file, line)
	}
	return ""
}

// trimPath keeps the last two path components.
func trimPath(file string) string {
	n := 0
	for i := len(file) - 1; i > 0; i-- {
		if file[i] == '/' {
			n++
			if n >= 2 {
				return file[i+1:]
			}
		}
	}
	return file
}
