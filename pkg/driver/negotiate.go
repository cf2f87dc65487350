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
	"fmt"

	"github.com/hashicorp/go-version"
	kerrors "github.com/rabbitstack/objexp/pkg/errors"
)

var supportedVersions, _ = version.NewConstraint(">= 1.0, < 2.0")

// Negotiate checks the broker speaks the protocol version supported by the client.
func (c *Client) Negotiate() (*version.Version, error) {
	v, err := c.GetVersion()
	if err != nil {
		return nil, err
	}
	ver, err := ParseVersion(v)
	if err != nil {
		return nil, err
	}
	if !supportedVersions.Check(ver) {
		return ver, fmt.Errorf("%w %s. Supported versions are %s", kerrors.ErrUnsupportedProtocol, ver, supportedVersions)
	}
	return ver, nil
}

// ParseVersion converts the protocol version where the high byte is the
// major and the low byte the minor version.
func ParseVersion(v uint16) (*version.Version, error) {
	return version.NewVersion(fmt.Sprintf("%d.%d", v>>8, v&0xff))
}
