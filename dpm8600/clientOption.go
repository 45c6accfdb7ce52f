// Copyright 2025 Florian Schueller. All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package dpm8600

import (
	"github.com/sirupsen/logrus"
)

// ClientOption client configuration options
type ClientOption struct {
	config Config
	logger *logrus.Logger
}

// NewOption creates a new ClientOption with the default DPM-8600 config.
// Note: SerialConfig within the default config needs to be set explicitly
// using SetSerialConfig.
func NewOption() *ClientOption {
	return &ClientOption{
		config: DefaultConfig(),
		logger: logrus.StandardLogger(),
	}
}

// SetConfig sets the main configuration. Uses DefaultConfig() if the
// provided cfg is invalid.
func (sf *ClientOption) SetConfig(cfg Config) *ClientOption {
	if err := cfg.Valid(); err != nil {
		sf.config = DefaultConfig()
	} else {
		sf.config = cfg
	}
	return sf
}

// SetSerialConfig sets the serial port configuration within the main config.
func (sf *ClientOption) SetSerialConfig(serialCfg SerialConfig) *ClientOption {
	sf.config.Serial = serialCfg
	return sf
}

// SetLogger sets the logger used by the client. Frame traces are emitted
// at debug level.
func (sf *ClientOption) SetLogger(l *logrus.Logger) *ClientOption {
	if l != nil {
		sf.logger = l
	}
	return sf
}
