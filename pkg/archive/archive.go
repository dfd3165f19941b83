package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Asset is one file to include in the archive.
type Asset struct {
	Filename string
	Data     []byte
}

// Build packs the assets into a zip archive held in memory.
func Build(assets []Asset) ([]byte, error) {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		w, err := zw.Create(asset.Filename)
		if err != nil {
			return nil, fmt.Errorf("archive: create entry %s: %w", asset.Filename, err)
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil, fmt.Errorf("archive: write entry %s: %w", asset.Filename, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("archive: finalize: %w", err)
	}
	return buf.Bytes(), nil
}
