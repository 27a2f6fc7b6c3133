package index

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// compressVariants reads path and writes path+".gz", path+".xz", and
// (when withZstd) path+".zst" beside it, per spec.md §4.6's "also
// compressed as .gz, .xz (and .zst when enabled)".
func compressVariants(path string, withZstd bool) error {
	if err := compressTo(path, path+".gz", func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	}); err != nil {
		return err
	}
	if err := compressTo(path, path+".xz", func(w io.Writer) (io.WriteCloser, error) {
		return xz.NewWriter(w)
	}); err != nil {
		return err
	}
	if withZstd {
		if err := compressTo(path, path+".zst", func(w io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
		}); err != nil {
			return err
		}
	}
	return nil
}

func compressTo(srcPath, dstPath string, newEncoder func(io.Writer) (io.WriteCloser, error)) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("index: opening %s: %w", srcPath, err)
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return fmt.Errorf("index: creating %s: %w", dstPath, err)
	}
	defer dst.Close()

	enc, err := newEncoder(dst)
	if err != nil {
		return fmt.Errorf("index: starting encoder for %s: %w", dstPath, err)
	}
	if _, err := io.Copy(enc, src); err != nil {
		enc.Close()
		return fmt.Errorf("index: compressing %s: %w", dstPath, err)
	}
	return enc.Close()
}
