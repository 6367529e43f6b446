package measure

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// compressedSizes estimates transfer size per category by zstd-compressing
// each artifact at the default level.
type compressedSizes struct {
	enc        *zstd.Encoder
	byCategory map[string]int64
}

func newCompressedSizes() (*compressedSizes, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize zstd encoder: %w", err)
	}
	return &compressedSizes{enc: enc, byCategory: make(map[string]int64)}, nil
}

// add records the compressed size of contents. Incompressible content counts
// at its raw size.
func (cs *compressedSizes) add(category string, contents []byte) {
	n := int64(len(cs.enc.EncodeAll(contents, nil)))
	if raw := int64(len(contents)); n > raw {
		n = raw
	}
	cs.byCategory[category] += n
}

func (cs *compressedSizes) close() {
	_ = cs.enc.Close()
}
