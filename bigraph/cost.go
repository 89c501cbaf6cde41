package bigraph

import (
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zlib"

	"csscover/common"
)

// Pricer turns serialized coverings into costs. Level 0 disables compression
// and the cost is the serialized length, levels 1-9 price the output of the
// selected compressor to approximate transfer size.
type Pricer struct {
	compressor common.Compressor
	level      int
}

// NewPricer validates compressor and level.
func NewPricer(compressor common.Compressor, level int) (Pricer, error) {
	if !compressor.IsValid() {
		return Pricer{}, fmt.Errorf("unsupported compressor %q", compressor)
	}
	if level < 0 || level > 9 {
		return Pricer{}, fmt.Errorf("compression level %d is out of range 0-9", level)
	}
	return Pricer{compressor: compressor, level: level}, nil
}

// Compressed reports whether costs are computed on compressed output.
func (p Pricer) Compressed() bool { return p.level > 0 }

func (p Pricer) String() string {
	if !p.Compressed() {
		return "raw"
	}
	return fmt.Sprintf("%s-%d", p.compressor, p.level)
}

// Price returns the cost of data. Empty data costs nothing regardless of
// compressor framing.
func (p Pricer) Price(data []byte) int {
	if !p.Compressed() || len(data) == 0 {
		return len(data)
	}
	switch p.compressor {
	case common.CompressorGzip:
		return streamLen(data, func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriterLevel(w, p.level)
		})
	case common.CompressorS2:
		switch {
		case p.level <= 3:
			return len(s2.Encode(nil, data))
		case p.level <= 6:
			return len(s2.EncodeBetter(nil, data))
		default:
			return len(s2.EncodeBest(nil, data))
		}
	case common.CompressorSnappy:
		return len(snappy.Encode(nil, data))
	default:
		return streamLen(data, func(w io.Writer) (io.WriteCloser, error) {
			return zlib.NewWriterLevel(w, p.level)
		})
	}
}

type countingWriter int

func (c *countingWriter) Write(p []byte) (int, error) {
	*c += countingWriter(len(p))
	return len(p), nil
}

// streamLen compresses data into a counter. Levels are validated by NewPricer
// and the counter never fails, so errors cannot happen here.
func streamLen(data []byte, open func(io.Writer) (io.WriteCloser, error)) int {
	var n countingWriter
	w, err := open(&n)
	if err != nil {
		panic(fmt.Sprintf("unable to create compressor: %v", err))
	}
	_, _ = w.Write(data)
	_ = w.Close()
	return int(n)
}
