package zlibstream

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/osvaldoandrade/anchoridl/internal/domain"
)

var errOutputLimit = errors.New("decompressed output exceeds limit")

// Decompressor expands a zlib stream fully into memory. A zero MaxOutput
// leaves the output unbounded.
type Decompressor struct {
	MaxOutput int64
}

func (d Decompressor) Decompress(payload []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecompression, err)
	}
	defer func() {
		_ = reader.Close()
	}()

	var src io.Reader = reader
	if d.MaxOutput > 0 {
		src = io.LimitReader(reader, d.MaxOutput+1)
	}

	out, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecompression, err)
	}
	if d.MaxOutput > 0 && int64(len(out)) > d.MaxOutput {
		return nil, fmt.Errorf("%w: %v (%d bytes)", domain.ErrDecompression, errOutputLimit, d.MaxOutput)
	}
	return out, nil
}

type Compressor struct {
	Level int
}

func (c Compressor) Compress(data []byte) ([]byte, error) {
	level := c.Level
	if level == 0 {
		level = zlib.DefaultCompression
	}

	var buf bytes.Buffer
	writer, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("zlib writer: %w", err)
	}
	if _, err := writer.Write(data); err != nil {
		return nil, fmt.Errorf("zlib write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("zlib close: %w", err)
	}
	return buf.Bytes(), nil
}
