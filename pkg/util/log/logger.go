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

package log

import (
	"errors"
	"expvar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rabbitstack/objexp/pkg/util/log/rotate"
	fs "github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

// loggerErrors counts logger setup errors
var loggerErrors = expvar.NewMap("logger.errors")

// logsDir resolves the directory where log files are stored. Unless
// overridden, logs live next to the executable.
func logsDir(c Config) string {
	if c.Path != "" {
		return c.Path
	}
	exe, err := os.Executable()
	if err != nil {
		return filepath.Join(os.Getenv("PROGRAMFILES"), "objexp", "logs")
	}
	return filepath.Join(filepath.Dir(exe), "..", "logs")
}

func formatter(c Config) logrus.Formatter {
	switch c.Formatter {
	case "text":
		return &logrus.TextFormatter{FullTimestamp: true}
	default:
		return &logrus.JSONFormatter{}
	}
}

// InitFromConfig initializes the global logrus logger from config options. Log
// lines are written to the rotating file with the given name.
func InitFromConfig(c Config, filename string) error {
	level, err := c.ParseLevel()
	if err != nil {
		return err
	}
	path := logsDir(c)
	if path == "" {
		return errors.New("got an empty logs directory path")
	}
	if _, err := os.Stat(path); err != nil {
		if err := os.MkdirAll(path, os.ModePerm); err != nil {
			return fmt.Errorf("unable to create the %s logs directory: %v", path, err)
		}
	}
	file := filepath.Join(path, filename)

	f := formatter(c)
	logrus.SetFormatter(f)
	logrus.SetLevel(level)

	if !c.LogStdout {
		logrus.SetOutput(io.Discard)
	}

	rhook, err := rotate.NewHook(rotate.Config{
		MaxAge:     c.MaxAge,
		MaxBackups: c.MaxBackups,
		MaxSize:    c.MaxSize,
		Level:      level,
		Formatter:  f,
		Filename:   file,
	})
	if err != nil {
		loggerErrors.Add(err.Error(), 1)
		// fallback on the plain file hook
		pathMap := make(fs.PathMap)
		for _, lvl := range logrus.AllLevels {
			pathMap[lvl] = file
		}
		logrus.AddHook(fs.NewHook(pathMap, f))
		logrus.Warnf("unable to initialize rotate file hook: %v", err)
		return nil
	}
	logrus.AddHook(rhook)

	return nil
}
