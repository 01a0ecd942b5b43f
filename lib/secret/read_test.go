// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package secret

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadFromPath(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name     string
		content  string
		expected string
	}{
		{name: "plain", content: "Zm9vYmFy", expected: "Zm9vYmFy"},
		{name: "trailing newline", content: "Zm9vYmFy\n", expected: "Zm9vYmFy"},
		{name: "surrounding whitespace", content: "  Zm9vYmFy \n", expected: "Zm9vYmFy"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(tempDir, strings.ReplaceAll(test.name, " ", "-"))
			if err := os.WriteFile(path, []byte(test.content), 0600); err != nil {
				t.Fatalf("writing test file: %v", err)
			}

			buffer, err := ReadFromPath(path)
			if err != nil {
				t.Fatalf("ReadFromPath() error: %v", err)
			}
			defer buffer.Close()
			if buffer.String() != test.expected {
				t.Errorf("ReadFromPath() = %q, want %q", buffer.String(), test.expected)
			}
		})
	}
}

func TestReadFromPath_Errors(t *testing.T) {
	tempDir := t.TempDir()

	if _, err := ReadFromPath(filepath.Join(tempDir, "missing")); err == nil {
		t.Error("expected error for missing file")
	}

	blank := filepath.Join(tempDir, "blank")
	if err := os.WriteFile(blank, []byte(" \n\t"), 0600); err != nil {
		t.Fatalf("writing test file: %v", err)
	}
	if _, err := ReadFromPath(blank); err == nil {
		t.Error("expected error for whitespace-only file")
	}
}

func TestReadLine(t *testing.T) {
	buffer, err := readLine(strings.NewReader("hunter2\nignored\n"))
	if err != nil {
		t.Fatalf("readLine() error: %v", err)
	}
	defer buffer.Close()
	if buffer.String() != "hunter2" {
		t.Errorf("readLine() = %q, want %q", buffer.String(), "hunter2")
	}

	if _, err := readLine(strings.NewReader("")); err == nil {
		t.Error("expected error for empty input")
	}
}
