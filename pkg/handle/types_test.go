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

package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttributesString(t *testing.T) {
	assert.Equal(t, "None", (&Handle{}).AttributesString())
	assert.Equal(t, "Inherit", (&Handle{Attributes: AttributeInherit}).AttributesString())
	assert.Equal(t, "Inherit, Protect, Audit", (&Handle{Attributes: 0x7}).AttributesString())
	assert.Equal(t, "Protect, Audit", (&Handle{Attributes: 0x5}).AttributesString())
}

func TestChangeKindString(t *testing.T) {
	assert.Equal(t, "PeakObjects", PeakObjectsChange.String())
	assert.Equal(t, "red", Red.String())
	assert.Equal(t, "green", Green.String())
}
