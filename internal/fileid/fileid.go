// Package fileid decodes Telegram file references and packs them into the
// compact string IDs used as record primary keys.
package fileid

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/EightFlix/Error/internal/errors"
)

// Type flags carried in the high bits of the type field.
const (
	WebLocationFlag   = 1 << 24
	FileReferenceFlag = 1 << 25
)

// FileType is the provider's media kind.
type FileType int32

const (
	TypeThumbnail FileType = iota
	TypeChatPhoto
	TypePhoto
	TypeVoice
	TypeVideo
	TypeDocument
	TypeEncrypted
	TypeTemp
	TypeSticker
	TypeAudio
	TypeAnimation
	TypeEncryptedThumbnail
	TypeWallpaper
	TypeVideoNote
	TypeSecureRaw
	TypeSecure
	TypeBackground
	TypeDocumentAsFile
)

var fileTypeNames = [...]string{
	"thumbnail", "chat_photo", "photo", "voice", "video", "document", "encrypted",
	"temp", "sticker", "audio", "animation", "encrypted_thumbnail", "wallpaper",
	"video_note", "secure_raw", "secure", "background", "document_as_file",
}

// String returns the snake_case name of t.
func (t FileType) String() string {
	if t.Valid() {
		return fileTypeNames[t]
	}
	return fmt.Sprintf("FileType(%d)", int32(t))
}

// Valid reports whether t is a known file type.
func (t FileType) Valid() bool {
	return t >= TypeThumbnail && t <= TypeDocumentAsFile
}

// FileID is a decoded file reference.
type FileID struct {
	Type          FileType
	DC            int32
	MediaID       int64
	AccessHash    int64
	FileReference []byte
	Major         byte
	Minor         byte
}

// Decode parses a base64url file reference.
// Malformed input returns a DECODE_ERROR; callers should skip the record.
func Decode(raw string) (*FileID, error) {
	raw = strings.TrimRight(strings.TrimSpace(raw), "=")
	if raw == "" {
		return nil, errors.NewDecode("empty file reference")
	}

	packed, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return nil, errors.NewDecode(fmt.Sprintf("invalid base64: %v", err))
	}

	buf, err := rleDecode(packed)
	if err != nil {
		return nil, err
	}
	if len(buf) < 1 {
		return nil, errors.NewDecode("empty payload")
	}

	id := &FileID{Major: buf[len(buf)-1]}
	if id.Major < 4 {
		buf = buf[:len(buf)-1]
	} else {
		if len(buf) < 2 {
			return nil, errors.NewDecode("missing version trailer")
		}
		id.Minor = buf[len(buf)-2]
		buf = buf[:len(buf)-2]
	}

	r := &reader{buf: buf}
	rawType, err := r.int32()
	if err != nil {
		return nil, err
	}
	if id.DC, err = r.int32(); err != nil {
		return nil, err
	}

	if rawType&WebLocationFlag != 0 {
		return nil, errors.NewDecode("web location references have no media id")
	}
	hasReference := rawType&FileReferenceFlag != 0
	id.Type = FileType(rawType &^ (WebLocationFlag | FileReferenceFlag))
	if !id.Type.Valid() {
		return nil, errors.NewDecode(fmt.Sprintf("unknown file type %d", int32(id.Type)))
	}

	if hasReference {
		if id.FileReference, err = r.tlBytes(); err != nil {
			return nil, err
		}
	}

	if id.MediaID, err = r.int64(); err != nil {
		return nil, err
	}
	if id.AccessHash, err = r.int64(); err != nil {
		return nil, err
	}

	return id, nil
}

// packedLen is the size of the packed key payload: int32, int32, int64, int64.
const packedLen = 24

// PackID packs the stable part of id (type, dc, media id, access hash) into
// a primary key. Identical inputs always produce identical keys.
func PackID(id *FileID) string {
	payload := make([]byte, packedLen)
	binary.LittleEndian.PutUint32(payload[0:4], uint32(id.Type))
	binary.LittleEndian.PutUint32(payload[4:8], uint32(id.DC))
	binary.LittleEndian.PutUint64(payload[8:16], uint64(id.MediaID))
	binary.LittleEndian.PutUint64(payload[16:24], uint64(id.AccessHash))
	return Encode(payload)
}

// Unpack decodes raw and returns its packed primary key.
func Unpack(raw string) (string, error) {
	id, err := Decode(raw)
	if err != nil {
		return "", err
	}
	return PackID(id), nil
}

// reader is a little-endian cursor over a decoded payload.
type reader struct {
	buf []byte
	pos int
}

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, errors.NewDecode(fmt.Sprintf("payload truncated at byte %d (need %d more)", r.pos, n))
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) int32() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(b)), nil
}

func (r *reader) int64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.LittleEndian.Uint64(b)), nil
}

// tlBytes reads a TL-serialized byte string: a one-byte length below 254,
// or 254 followed by a three-byte length, padded to a multiple of four.
func (r *reader) tlBytes() ([]byte, error) {
	head, err := r.take(1)
	if err != nil {
		return nil, err
	}

	length := int(head[0])
	headerLen := 1
	if length == 254 {
		ext, err := r.take(3)
		if err != nil {
			return nil, err
		}
		length = int(ext[0]) | int(ext[1])<<8 | int(ext[2])<<16
		headerLen = 4
	} else if length == 255 {
		return nil, errors.NewDecode("invalid byte string length marker")
	}

	data, err := r.take(length)
	if err != nil {
		return nil, err
	}
	if pad := (4 - (headerLen+length)%4) % 4; pad > 0 {
		if _, err := r.take(pad); err != nil {
			return nil, err
		}
	}

	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}
