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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rabbitstack/objexp/pkg/util/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configFile     = "config-file"
	debugPrivilege = "debug-privilege"
)

// Config stores configuration options for fine-tuning the behaviour of objexp.
type Config struct {
	// Handle contains the settings that influence handle enumeration and tracking.
	Handle HandleConfig `json:"handle" yaml:"handle"`
	// Driver determines how the broker is reached.
	Driver DriverConfig `json:"driver" yaml:"driver"`
	// Broker contains the privileged broker settings.
	Broker BrokerConfig `json:"broker" yaml:"broker"`
	// Log contains log-specific configuration options
	Log log.Config `json:"logging" yaml:"logging"`
	// DebugPrivilege dictates if the SeDebugPrivilege is injected into
	// the process' access token.
	DebugPrivilege bool `json:"debug-privilege" yaml:"debug-privilege"`

	flags *pflag.FlagSet
	viper *viper.Viper
	opts  *Options
}

// Options determines which config flags are toggled depending on the command type.
type Options struct {
	enumerate bool
	watch     bool
	broker    bool
}

// Option is the type alias for the config option.
type Option func(*Options)

// WithEnumerate determines one of the commands that inspects handles or objects is executed.
func WithEnumerate() Option {
	return func(o *Options) {
		o.enumerate = true
	}
}

// WithWatch determines the watch command is executed.
func WithWatch() Option {
	return func(o *Options) {
		o.enumerate = true
		o.watch = true
	}
}

// WithBroker determines the broker command is executed.
func WithBroker() Option {
	return func(o *Options) {
		o.broker = true
	}
}

// NewWithOpts builds a new configuration store from a variety of sources such as configuration files,
// environment variables or command line flags.
func NewWithOpts(options ...Option) *Config {
	opts := &Options{}

	for _, opt := range options {
		opt(opts)
	}

	v := viper.New()
	v.SetEnvPrefix("objexp")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	c := &Config{
		Handle: HandleConfig{},
		Driver: DriverConfig{},
		Broker: BrokerConfig{},
		Log:    log.Config{},
		viper:  v,
		flags:  new(pflag.FlagSet),
		opts:   opts,
	}

	c.addFlags()

	return c
}

// MustViperize adds the flag set to the Cobra command and binds them within the Viper flags.
func (c *Config) MustViperize(cmd *cobra.Command) {
	cmd.PersistentFlags().AddFlagSet(c.flags)
	if err := c.viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		panic(err)
	}
}

// Init setups the configuration state from Viper.
func (c *Config) Init() error {
	if err := c.Log.InitFromViper(c.viper); err != nil {
		return err
	}
	c.DebugPrivilege = c.viper.GetBool(debugPrivilege)

	if c.opts.enumerate {
		if err := c.Handle.initFromViper(c.viper); err != nil {
			return err
		}
		c.Driver.initFromViper(c.viper)
	}
	if c.opts.broker {
		if err := c.Broker.initFromViper(c.viper); err != nil {
			return err
		}
	}
	return nil
}

// TryLoadFile attempts to load the configuration file from specified path on the file system.
// The absence of the default configuration file is not an error.
func (c *Config) TryLoadFile(file string) error {
	if file == "" {
		return nil
	}
	if _, err := os.Stat(file); err != nil {
		if os.IsNotExist(err) && !c.flags.Changed(configFile) {
			return nil
		}
		return err
	}
	c.viper.SetConfigFile(file)
	return c.viper.ReadInConfig()
}

// Validate ensures that all configuration options provided by user have the expected values. It returns
// a list of validation errors prefixed with the offending configuration property/flag.
func (c *Config) Validate() error {
	// we'll first validate the structure and values of the config file
	file := c.File()
	if b, err := os.ReadFile(file); err == nil {
		var out interface{}
		switch filepath.Ext(file) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(b, &out)
		case ".json":
			err = json.Unmarshal(b, &out)
		default:
			return fmt.Errorf("%s is not a supported config file extension", filepath.Ext(file))
		}
		if err != nil {
			return fmt.Errorf("couldn't read the config file: %v", err)
		}
		if valid, errs := validate(out); !valid || len(errs) > 0 {
			return fmt.Errorf("invalid config: %v", joinErrors(errs))
		}
	}
	// now validate the Viper config flags
	if valid, errs := validate(c.viper.AllSettings()); !valid || len(errs) > 0 {
		return fmt.Errorf("invalid config: %v", joinErrors(errs))
	}
	if c.opts.watch {
		if err := c.Handle.validatePollInterval(); err != nil {
			return err
		}
	}
	if c.opts.enumerate {
		if err := c.Driver.validate(); err != nil {
			return err
		}
	}
	return nil
}

// File returns the config file path.
func (c *Config) File() string { return c.viper.GetString(configFile) }

func (c *Config) addFlags() {
	c.flags.String(configFile, filepath.Join(os.Getenv("PROGRAMFILES"), "objexp", "config", "objexp.yml"), "Indicates the location of the configuration file")
	c.flags.Bool(debugPrivilege, true, "Dictates if the SeDebugPrivilege is injected into the process' access token")
	if c.opts.enumerate {
		c.Handle.addFlags(c.flags, c.opts.watch)
		c.Driver.addFlags(c.flags)
	}
	if c.opts.broker {
		c.Broker.addFlags(c.flags)
	}
	c.Log.AddFlags(c.flags)
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return errors.New("unknown validation failure")
	}
	msgs := make([]string, len(errs))
	for i, err := range errs {
		msgs[i] = err.Error()
	}
	return errors.New(strings.Join(msgs, "; "))
}
