package fileid

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EightFlix/Error/internal/errors"
)

// rawPayload builds the uncompacted body of a file reference.
func rawPayload(typeField int32, dc int32, reference []byte, mediaID, accessHash int64) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, typeField)
	_ = binary.Write(&buf, binary.LittleEndian, dc)
	if reference != nil {
		headerLen := 1
		if len(reference) < 254 {
			buf.WriteByte(byte(len(reference)))
		} else {
			headerLen = 4
			buf.WriteByte(254)
			buf.WriteByte(byte(len(reference)))
			buf.WriteByte(byte(len(reference) >> 8))
			buf.WriteByte(byte(len(reference) >> 16))
		}
		buf.Write(reference)
		for i := 0; i < (4-(headerLen+len(reference))%4)%4; i++ {
			buf.WriteByte(0)
		}
	}
	_ = binary.Write(&buf, binary.LittleEndian, mediaID)
	_ = binary.Write(&buf, binary.LittleEndian, accessHash)
	return buf.Bytes()
}

func TestPackID_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		id   FileID
	}{
		{"video", FileID{Type: TypeVideo, DC: 4, MediaID: 5366175493853544660, AccessHash: -3184212345678901234}},
		{"document", FileID{Type: TypeDocument, DC: 1, MediaID: 1, AccessHash: 0}},
		{"zero ids", FileID{Type: TypeThumbnail, DC: 0, MediaID: 0, AccessHash: 0}},
		{"document as file", FileID{Type: TypeDocumentAsFile, DC: 5, MediaID: -1, AccessHash: 42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			packed := PackID(&tt.id)
			assert.NotContains(t, packed, "=")

			got, err := Decode(packed)
			require.NoError(t, err)
			assert.Equal(t, tt.id.Type, got.Type)
			assert.Equal(t, tt.id.DC, got.DC)
			assert.Equal(t, tt.id.MediaID, got.MediaID)
			assert.Equal(t, tt.id.AccessHash, got.AccessHash)
			assert.Equal(t, byte(4), got.Major)
			assert.Equal(t, byte(22), got.Minor)

			assert.Equal(t, packed, PackID(got), "PackID must be deterministic")
		})
	}
}

func TestDecode_WithFileReference(t *testing.T) {
	reference := []byte{0x01, 0x65, 0x3a, 0x9f, 0x00}
	payload := rawPayload(int32(TypeDocument)|FileReferenceFlag, 2, reference, 987654321, 123456789)

	got, err := Decode(Encode(payload))
	require.NoError(t, err)
	assert.Equal(t, TypeDocument, got.Type)
	assert.Equal(t, int32(2), got.DC)
	assert.Equal(t, reference, got.FileReference)
	assert.Equal(t, int64(987654321), got.MediaID)
	assert.Equal(t, int64(123456789), got.AccessHash)
}

func TestDecode_LongFileReference(t *testing.T) {
	reference := bytes.Repeat([]byte{0xab}, 300)
	payload := rawPayload(int32(TypeVideo)|FileReferenceFlag, 4, reference, 77, -77)

	got, err := Decode(Encode(payload))
	require.NoError(t, err)
	assert.Equal(t, reference, got.FileReference)
	assert.Equal(t, int64(77), got.MediaID)
	assert.Equal(t, int64(-77), got.AccessHash)
}

func TestUnpack_StableAcrossReferences(t *testing.T) {
	// Two references to the same file that differ only in file_reference
	// must pack to the same key.
	a := Encode(rawPayload(int32(TypeVideo)|FileReferenceFlag, 4, []byte{1, 2, 3}, 555, 666))
	b := Encode(rawPayload(int32(TypeVideo)|FileReferenceFlag, 4, []byte{9, 9, 9, 9, 9, 9}, 555, 666))
	require.NotEqual(t, a, b)

	keyA, err := Unpack(a)
	require.NoError(t, err)
	keyB, err := Unpack(b)
	require.NoError(t, err)

	assert.Equal(t, keyA, keyB)
	assert.Equal(t, PackID(&FileID{Type: TypeVideo, DC: 4, MediaID: 555, AccessHash: 666}), keyA)
}

func TestDecode_MajorBelowFour(t *testing.T) {
	payload := rawPayload(int32(TypeAudio), 3, nil, 10, 20)
	compacted, err := base64.RawURLEncoding.DecodeString(Encode(payload))
	require.NoError(t, err)
	// Replace the 0x16 0x04 trailer with a single major byte.
	compacted = append(compacted[:len(compacted)-2], 0x02)

	got, err := Decode(base64.RawURLEncoding.EncodeToString(compacted))
	require.NoError(t, err)
	assert.Equal(t, TypeAudio, got.Type)
	assert.Equal(t, byte(2), got.Major)
	assert.Equal(t, byte(0), got.Minor)
	assert.Equal(t, int64(10), got.MediaID)
	assert.Equal(t, int64(20), got.AccessHash)
}

func TestDecode_AcceptsPadding(t *testing.T) {
	packed := PackID(&FileID{Type: TypePhoto, DC: 2, MediaID: 3, AccessHash: 4})
	padded := packed + "=="
	got, err := Decode(padded)
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.MediaID)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"invalid base64", "!!!not-base64!!!"},
		{"truncated", Encode(rawPayload(int32(TypeVideo), 4, nil, 1, 2)[:12])},
		{"web location", Encode(rawPayload(int32(TypeVideo)|WebLocationFlag, 4, nil, 1, 2))},
		{"unknown type", Encode(rawPayload(99, 4, nil, 1, 2))},
		{"dangling zero marker", base64.RawURLEncoding.EncodeToString([]byte{0x05, 0x00})},
		{"truncated file reference", Encode(rawPayload(int32(TypeVideo)|FileReferenceFlag, 4, nil, 1, 2)[:9])},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.raw)
			assert.Nil(t, got)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrDecode), "want DECODE_ERROR, got %v", err)
		})
	}
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    []byte
	}{
		{"no zeros", []byte{1, 2, 3}, []byte{1, 2, 3, 0x16, 0x04}},
		{"zero run", []byte{0, 0, 0, 1}, []byte{0, 3, 1, 0x16, 0x04}},
		{"trailing zeros", []byte{7, 0, 0}, []byte{7, 0, 2, 0x16, 0x04}},
		{"empty", nil, []byte{0x16, 0x04}},
		{"run over 255", make([]byte, 300), []byte{0, 255, 0, 45, 0x16, 0x04}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Encode(tt.payload)
			assert.Equal(t, base64.RawURLEncoding.EncodeToString(tt.want), got)

			decoded, err := base64.RawURLEncoding.DecodeString(got)
			require.NoError(t, err)
			expanded, err := rleDecode(decoded)
			require.NoError(t, err)
			assert.Equal(t, append(append([]byte{}, tt.payload...), 0x16, 0x04), expanded)
		})
	}
}

func TestFileType_String(t *testing.T) {
	assert.Equal(t, "video", TypeVideo.String())
	assert.Equal(t, "document_as_file", TypeDocumentAsFile.String())
	assert.Equal(t, "FileType(42)", FileType(42).String())
	assert.False(t, FileType(-1).Valid())
}

func TestPackID_Layout(t *testing.T) {
	packed := PackID(&FileID{Type: TypeDocument, DC: 5, MediaID: -1, AccessHash: -1})
	compacted, err := base64.RawURLEncoding.DecodeString(packed)
	require.NoError(t, err)
	buf, err := rleDecode(compacted)
	require.NoError(t, err)

	require.Len(t, buf, packedLen+2)
	assert.Equal(t, []byte{5, 0, 0, 0, 5, 0, 0, 0}, buf[:8])
	assert.Equal(t, []byte{0x16, 0x04}, buf[packedLen:])
}
