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

package broker

import (
	"encoding/binary"
	"io"

	kerrors "github.com/rabbitstack/objexp/pkg/errors"
	"github.com/rabbitstack/objexp/pkg/util/ntstatus"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/text/encoding/unicode"
)

const (
	fileDeviceObjExp = 0x8000
	methodBuffered   = 0
	fileAnyAccess    = 0
)

func ctlCode(fn uint32) uint32 {
	return fileDeviceObjExp<<16 | fileAnyAccess<<14 | fn<<2 | methodBuffered
}

// Control codes recognized by the broker.
var (
	IoctlOpenObject          = ctlCode(0x800)
	IoctlDupHandle           = ctlCode(0x801)
	IoctlOpenProcess         = ctlCode(0x802)
	IoctlOpenThread          = ctlCode(0x803)
	IoctlGetVersion          = ctlCode(0x804)
	IoctlGetObjectAddress    = ctlCode(0x805)
	IoctlOpenEventByName     = ctlCode(0x806)
	IoctlOpenSemaphoreByName = ctlCode(0x807)
	IoctlOpenJobByName       = ctlCode(0x808)
	IoctlOpenDesktopByName   = ctlCode(0x809)
)

// ProtocolVersion is the version reported by the GetVersion operation. The
// high byte is the major and the low byte the minor version.
const ProtocolVersion uint16 = 0x0100

// Sizes of fixed request and response payloads.
const (
	HandleSize            = 8
	AddressSize           = 8
	VersionSize           = 2
	OpenObjectSize        = 16
	DupHandleSize         = 16
	OpenProcessThreadSize = 8
)

// MaxPayloadSize bounds the payload of a single frame.
const MaxPayloadSize = 1 << 16

var le = binary.LittleEndian

// OpenObjectData is the request for opening the object by its kernel address.
type OpenObjectData struct {
	Address uint64
	Access  uint32
}

// Marshal encodes the request.
func (d OpenObjectData) Marshal() []byte {
	b := make([]byte, OpenObjectSize)
	le.PutUint64(b, d.Address)
	le.PutUint32(b[8:], d.Access)
	return b
}

func unmarshalOpenObject(b []byte) OpenObjectData {
	return OpenObjectData{Address: le.Uint64(b), Access: le.Uint32(b[8:])}
}

// DupHandleData is the request for duplicating the handle of another process.
type DupHandleData struct {
	Handle     uint32
	SourcePid  uint32
	AccessMask uint32
	Flags      uint32
}

// Marshal encodes the request.
func (d DupHandleData) Marshal() []byte {
	b := make([]byte, DupHandleSize)
	le.PutUint32(b, d.Handle)
	le.PutUint32(b[4:], d.SourcePid)
	le.PutUint32(b[8:], d.AccessMask)
	le.PutUint32(b[12:], d.Flags)
	return b
}

func unmarshalDupHandle(b []byte) DupHandleData {
	return DupHandleData{
		Handle:     le.Uint32(b),
		SourcePid:  le.Uint32(b[4:]),
		AccessMask: le.Uint32(b[8:]),
		Flags:      le.Uint32(b[12:]),
	}
}

// OpenProcessThreadData is the request for opening the process or thread by identifier.
type OpenProcessThreadData struct {
	ID         uint32
	AccessMask uint32
}

// Marshal encodes the request.
func (d OpenProcessThreadData) Marshal() []byte {
	b := make([]byte, OpenProcessThreadSize)
	le.PutUint32(b, d.ID)
	le.PutUint32(b[4:], d.AccessMask)
	return b
}

func unmarshalOpenProcessThread(b []byte) OpenProcessThreadData {
	return OpenProcessThreadData{ID: le.Uint32(b), AccessMask: le.Uint32(b[4:])}
}

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// MarshalName encodes the object path as a null-terminated UTF-16LE string.
func MarshalName(path string) ([]byte, error) {
	return utf16le.NewEncoder().Bytes([]byte(path + "\x00"))
}

// unmarshalName decodes the null-terminated UTF-16LE object path. It returns
// false if the buffer doesn't end with the terminator.
func unmarshalName(b []byte) (string, bool) {
	if len(b) < 2 || len(b)%2 != 0 || b[len(b)-2] != 0 || b[len(b)-1] != 0 {
		return "", false
	}
	s, err := utf16le.NewDecoder().Bytes(b[:len(b)-2])
	if err != nil {
		return "", false
	}
	// an embedded terminator ends the name
	for i, c := range s {
		if c == 0 {
			s = s[:i]
			break
		}
	}
	return string(s), true
}

// MarshalHandle encodes the handle value.
func MarshalHandle(h uint64) []byte {
	b := make([]byte, HandleSize)
	le.PutUint64(b, h)
	return b
}

// UnmarshalHandle decodes the handle value from the response payload.
func UnmarshalHandle(b []byte) (uint64, error) {
	if len(b) < HandleSize {
		return 0, kerrors.ErrSizeMismatch
	}
	return le.Uint64(b), nil
}

// UnmarshalVersion decodes the protocol version from the response payload.
func UnmarshalVersion(b []byte) (uint16, error) {
	if len(b) < VersionSize {
		return 0, kerrors.ErrSizeMismatch
	}
	return le.Uint16(b), nil
}

// Request is the control frame sent by the client.
type Request struct {
	Code    uint32
	OutLen  uint32
	Payload []byte
}

// Response is the frame the broker replies with.
type Response struct {
	Status  ntstatus.Status
	Payload []byte
}

const (
	requestHeaderSize  = 12
	responseHeaderSize = 8
)

// WriteRequest writes the request frame.
func WriteRequest(w io.Writer, r Request) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	var hdr [requestHeaderSize]byte
	le.PutUint32(hdr[:], r.Code)
	le.PutUint32(hdr[4:], uint32(len(r.Payload)))
	le.PutUint32(hdr[8:], r.OutLen)
	_, _ = buf.Write(hdr[:])
	_, _ = buf.Write(r.Payload)
	_, err := w.Write(buf.B)
	return err
}

// ReadRequest reads the request frame. An empty payload is returned as nil.
func ReadRequest(r io.Reader) (Request, error) {
	var hdr [requestHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Request{}, err
	}
	req := Request{Code: le.Uint32(hdr[:]), OutLen: le.Uint32(hdr[8:])}
	payload, err := readPayload(r, le.Uint32(hdr[4:]))
	if err != nil {
		return Request{}, err
	}
	req.Payload = payload
	return req, nil
}

// WriteResponse writes the response frame.
func WriteResponse(w io.Writer, r Response) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	var hdr [responseHeaderSize]byte
	le.PutUint32(hdr[:], uint32(r.Status))
	le.PutUint32(hdr[4:], uint32(len(r.Payload)))
	_, _ = buf.Write(hdr[:])
	_, _ = buf.Write(r.Payload)
	_, err := w.Write(buf.B)
	return err
}

// ReadResponse reads the response frame.
func ReadResponse(r io.Reader) (Response, error) {
	var hdr [responseHeaderSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Response{}, err
	}
	resp := Response{Status: ntstatus.Status(le.Uint32(hdr[:]))}
	payload, err := readPayload(r, le.Uint32(hdr[4:]))
	if err != nil {
		return Response{}, err
	}
	resp.Payload = payload
	return resp, nil
}

func readPayload(r io.Reader, n uint32) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if n > MaxPayloadSize {
		return nil, kerrors.ErrSizeMismatch
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
