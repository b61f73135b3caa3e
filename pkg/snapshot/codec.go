package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// zstdMagic is the frame header every zstd stream starts with.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Encode writes g as JSON, zstd-compressed if compress is set.
func Encode(w io.Writer, g *Graph, compress bool) error {
	if !compress {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(g)
	}

	zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("snapshot: create zstd writer: %w", err)
	}
	if err := json.NewEncoder(zw).Encode(g); err != nil {
		zw.Close()
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("snapshot: flush zstd: %w", err)
	}
	return nil
}

// Marshal is Encode into a byte slice.
func Marshal(g *Graph, compress bool) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, g, compress); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a graph written by Encode. Compression is detected from the
// stream header.
func Decode(r io.Reader) (*Graph, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("snapshot: read header: %w", err)
	}

	var src io.Reader = br
	if bytes.Equal(head, zstdMagic) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("snapshot: create zstd reader: %w", err)
		}
		defer zr.Close()
		src = zr
	}

	var g Graph
	if err := json.NewDecoder(src).Decode(&g); err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	return &g, nil
}
