// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package vault

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func TestParseCompression(t *testing.T) {
	for _, name := range []string{"zstd", "lz4", "none"} {
		compression, err := ParseCompression(name)
		if err != nil {
			t.Fatalf("ParseCompression(%q) failed: %v", name, err)
		}
		if compression.String() != name {
			t.Errorf("ParseCompression(%q).String() = %q", name, compression.String())
		}
	}
	if compression, err := ParseCompression(""); err != nil || compression != CompressionZstd {
		t.Errorf("ParseCompression(\"\") = %v, %v; want zstd", compression, err)
	}
	if _, err := ParseCompression("gzip"); err == nil {
		t.Error("ParseCompression(\"gzip\") should fail")
	}
}

func TestFrameRoundTrip(t *testing.T) {
	compressible := bytes.Repeat([]byte("access_token=syt_abcdef;"), 64)
	random := make([]byte, 512)
	rand.Read(random)

	for _, compression := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		for name, blob := range map[string][]byte{"compressible": compressible, "random": random, "tiny": []byte("x")} {
			t.Run(compression.String()+"/"+name, func(t *testing.T) {
				framed, err := frame(blob, compression)
				if err != nil {
					t.Fatalf("frame failed: %v", err)
				}
				got, err := unframe(framed)
				if err != nil {
					t.Fatalf("unframe failed: %v", err)
				}
				if !bytes.Equal(got, blob) {
					t.Error("round trip changed the blob")
				}
			})
		}
	}
}

func TestFrame_IncompressibleStoredRaw(t *testing.T) {
	random := make([]byte, 256)
	rand.Read(random)
	framed, err := frame(random, CompressionZstd)
	if err != nil {
		t.Fatalf("frame failed: %v", err)
	}
	if Compression(framed[0]) != CompressionNone {
		t.Errorf("tag = %s, want none for random data", Compression(framed[0]))
	}
}

func TestFrame_CompressesRepetitiveData(t *testing.T) {
	blob := bytes.Repeat([]byte{'a'}, 4096)
	framed, err := frame(blob, CompressionZstd)
	if err != nil {
		t.Fatalf("frame failed: %v", err)
	}
	if Compression(framed[0]) != CompressionZstd {
		t.Errorf("tag = %s, want zstd", Compression(framed[0]))
	}
	if len(framed) >= len(blob) {
		t.Errorf("framed size %d is not smaller than %d", len(framed), len(blob))
	}
}

func TestUnframe_Malformed(t *testing.T) {
	valid, err := frame(bytes.Repeat([]byte("abc"), 100), CompressionLZ4)
	if err != nil {
		t.Fatalf("frame failed: %v", err)
	}

	tests := []struct {
		name   string
		framed []byte
	}{
		{"empty", nil},
		{"tag only", []byte{byte(CompressionZstd)}},
		{"unknown tag", []byte{99, 1, 'x'}},
		{"length mismatch", []byte{byte(CompressionNone), 5, 'x'}},
		{"oversized declaration", append([]byte{byte(CompressionNone)}, 0xff, 0xff, 0xff, 0x7f)},
		{"truncated payload", valid[:len(valid)-3]},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := unframe(test.framed); err == nil {
				t.Error("unframe accepted a malformed frame")
			}
		})
	}
}

func TestFrame_RejectsOversizedBlob(t *testing.T) {
	if _, err := frame(make([]byte, maxBlobSize+1), CompressionNone); err == nil {
		t.Error("frame accepted a blob over the limit")
	}
}
