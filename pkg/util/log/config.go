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
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	logLevel      = "logging.level"
	logMaxAge     = "logging.max-age"
	logMaxBackups = "logging.max-backups"
	logMaxSize    = "logging.max-size"
	logFormatter  = "logging.formatter"
	logPath       = "logging.path"
	logStdout     = "logging.log-stdout"
)

// Rotation determines when log files are rotated and how many of them are kept.
type Rotation struct {
	// MaxSize is the size in megabytes the log file reaches before it is rotated.
	MaxSize int `json:"max-size" yaml:"max-size" mapstructure:"max-size"`
	// MaxBackups is the number of rotated log files to keep.
	MaxBackups int `json:"max-backups" yaml:"max-backups" mapstructure:"max-backups"`
	// MaxAge is the number of days rotated log files are kept. Zero keeps them forever.
	MaxAge int `json:"max-age" yaml:"max-age" mapstructure:"max-age"`
}

// Config contains the settings of the logger.
type Config struct {
	// Level is the minimum level of emitted log lines.
	Level string `json:"level" yaml:"level" mapstructure:"level"`
	// Formatter is either json or text.
	Formatter string `json:"formatter" yaml:"formatter" mapstructure:"formatter"`
	// Path overrides the directory of log files.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
	// LogStdout mirrors log lines to standard output.
	LogStdout bool `json:"log-stdout" yaml:"log-stdout" mapstructure:"log-stdout"`

	Rotation `json:",inline" yaml:",inline" mapstructure:",squash"`
}

// InitFromViper decodes the logging section.
func (c *Config) InitFromViper(v *viper.Viper) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{Result: c, WeaklyTypedInput: true})
	if err != nil {
		return err
	}
	if err := dec.Decode(v.AllSettings()["logging"]); err != nil {
		return fmt.Errorf("unable to decode logging config: %v", err)
	}
	return nil
}

// ParseLevel returns the logrus level. The empty level is an error.
func (c Config) ParseLevel() (logrus.Level, error) {
	return logrus.ParseLevel(c.Level)
}

// AddFlags registers persistent logging flags.
func (c *Config) AddFlags(flags *pflag.FlagSet) {
	flags.String(logLevel, "info", "Specifies the minimum level of emitted log lines")
	flags.String(logFormatter, "text", "Specifies the log formatter (json|text)")
	flags.String(logPath, "", "Overrides the directory where log files are stored")
	flags.Bool(logStdout, false, "Mirrors log lines to standard output")
	flags.Int(logMaxSize, 100, "Specifies the size in megabytes the log file reaches before it is rotated")
	flags.Int(logMaxBackups, 15, "Specifies the number of rotated log files to keep")
	flags.Int(logMaxAge, 0, "Specifies the number of days rotated log files are kept. By default they are never removed")
}
