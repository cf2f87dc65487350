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
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHookWritesEntries(t *testing.T) {
	file := filepath.Join(t.TempDir(), "objexp.log")
	hook, err := NewHook(Config{Filename: file, MaxSize: 1, Level: logrus.InfoLevel, Formatter: &logrus.TextFormatter{DisableColors: true}})
	require.NoError(t, err)
	defer hook.Close()

	assert.Len(t, hook.Levels(), int(logrus.InfoLevel)+1)

	log := logrus.New()
	log.AddHook(hook)
	log.Info("handle table enumerated")

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), "handle table enumerated")
	assert.Contains(t, string(b), "source=")
}

func TestNewHookRequiresFilename(t *testing.T) {
	_, err := NewHook(Config{})
	require.Error(t, err)
}

func TestTrimPath(t *testing.T) {
	assert.Equal(t, "handle/manager.go", trimPath("/go/src/objexp/pkg/handle/manager.go"))
	assert.Equal(t, "main.go", trimPath("main.go"))
}
