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
	"bytes"
	"text/template"
)

var schema = `
{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"config-file":		{"type": "string"},
		"debug-privilege":	{"type": "boolean"},
		"handle": {
			"type": "object",
			"properties": {
				"name-timeout":			{"type": "string", "minLength": 2, "pattern": "^[0-9]+(us|ms|s)$"},
				"skip-self":			{"type": "boolean"},
				"buffer-size":			{"type": "integer", "minimum": {{ .MinBufferSize }}, "maximum": {{ .MaxBufferSize }}},
				"poll-interval":		{"type": "string", "enum": ["500ms", "1s", "2s", "5s"]},
				"highlight-duration":	{"type": "string", "minLength": 2, "pattern": "^[0-9]+(ms|s|m)$"},
				"details-ttl":			{"type": "string", "minLength": 2, "pattern": "^[0-9]+(ms|s|m)$"}
			},
			"additionalProperties": false
		},
		"driver": {
			"type": "object",
			"properties": {
				"transport":	{"type": "string", "enum": ["device", "pipe"]},
				"device":		{"type": "string", "minLength": 5, "pattern": "^\\\\\\\\\\.\\\\"},
				"pipe":			{"type": "string", "pattern": "^npipe:///[A-Za-z0-9_.-]+$"},
				"dial-timeout":	{"type": "string", "minLength": 2, "pattern": "^[0-9]+(ms|s|m)$"}
			},
			"additionalProperties": false
		},
		"broker": {
			"type": "object",
			"properties": {
				"pipe":					{"type": "string", "pattern": "^npipe:///[A-Za-z0-9_.-]+$"},
				"allowed-images":		{"type": "array", "minItems": 1, "items": {"type": "string", "minLength": 1, "pattern": "(?i)^[^\\\\/]+\\.exe$"}},
				"security-descriptor":	{"type": "string", "minLength": 2},
				"rate":					{"type": "integer", "minimum": 1},
				"burst":				{"type": "integer", "minimum": 1}
			},
			"additionalProperties": false
		},
		"logging": {
			"type": "object",
			"properties": {
				"level":		{"type": "string", "enum": ["info", "INFO", "warn", "WARN", "warning", "WARNING", "panic", "PANIC", "fatal", "FATAL", "error", "ERROR", "debug", "DEBUG", "trace", "TRACE"]},
				"max-age":		{"type": "integer", "minimum": 0},
				"max-backups":	{"type": "integer", "minimum": 1},
				"max-size":		{"type": "integer", "minimum": 1},
				"formatter":	{"type": "string", "enum": ["json", "text"]},
				"path":			{"type": "string"},
				"log-stdout":	{"type": "boolean"}
			},
			"additionalProperties": false
		}
	},
	"additionalProperties": false
}
`

const (
	minBufferSize = 1 << 16
	maxBufferSize = 1 << 31
)

type schemaConfig struct {
	MinBufferSize uint32
	MaxBufferSize uint32
}

func interpolateSchema() string {
	tmpl := template.Must(template.New("schema").Parse(schema))

	var b bytes.Buffer
	err := tmpl.Execute(&b, &schemaConfig{
		MinBufferSize: minBufferSize,
		MaxBufferSize: maxBufferSize,
	})
	if err != nil {
		return ""
	}

	return b.String()
}
