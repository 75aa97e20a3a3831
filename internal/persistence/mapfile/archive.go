package mapfile

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// WriteArchive stores a compressed copy of the document, used by the
// autosave loop. Archives are full JSON documents under zstd; ReadArchive
// round-trips them, so an archive can reseed a world after a crash.
func WriteArchive(path string, doc Document) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		_ = f.Close()
		return err
	}

	// Flush and close explicitly: a short write surfacing only at flush time
	// would otherwise be swallowed and leave a truncated archive behind.
	bw := bufio.NewWriterSize(enc, 64*1024)
	if err := json.NewEncoder(bw).Encode(&doc); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("encode archive: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		_ = f.Close()
		return fmt.Errorf("flush archive: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("close archive stream: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close archive file: %w", err)
	}
	return nil
}

func ReadArchive(path string) (Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return Document{}, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)
	var doc Document
	if err := json.NewDecoder(br).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode archive: %w", err)
	}
	if err := validateDoc(&doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func validateDoc(d *Document) error {
	for i := range d.Entities {
		if !IsKind(d.Entities[i].Type) {
			return fmt.Errorf("entity %d: unknown type %q", i, d.Entities[i].Type)
		}
	}
	return nil
}
