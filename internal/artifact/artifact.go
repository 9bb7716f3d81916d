// Package artifact turns a decrypted backup into downloadable files.
package artifact

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/backupdecrypt/internal/e2ee"
	"github.com/dmitrijs2005/backupdecrypt/internal/fsname"
)

const (
	ImportFileName   = "decrypted-sn-data.txt"
	PlaintextZipName = "decrypted-sn-data.zip"

	manifestName = "Standard Notes Backup and Import File"
	untypedDir   = "untyped"
)

// Artifact is one file handed to the user.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
	// Warnings are non-fatal notices produced while decrypting.
	Warnings []string
}

func pretty(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// ImportFile renders backup as a decrypted file that can be imported again.
func ImportFile(backup *e2ee.BackupFile) (*Artifact, error) {
	data, err := pretty(backup)
	if err != nil {
		return nil, fmt.Errorf("import file: %w", err)
	}
	return &Artifact{
		Name:        ImportFileName,
		ContentType: "text/json",
		Data:        data,
	}, nil
}

// PlaintextZip renders backup as a zip with a manifest holding the whole
// decrypted file and one text file per item, grouped by content type.
func PlaintextZip(backup *e2ee.BackupFile, modified time.Time) (*Artifact, error) {
	manifest, err := pretty(backup)
	if err != nil {
		return nil, fmt.Errorf("zip manifest: %w", err)
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	used := make(map[string]bool)

	add := func(name string, body []byte) error {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return err
		}
		used[name] = true
		_, err = w.Write(body)
		return err
	}

	if err := add(fsname.BoundedTxtName(manifestName, ""), manifest); err != nil {
		return nil, fmt.Errorf("zip manifest: %w", err)
	}
	for _, it := range backup.Items {
		base, body, err := entry(it)
		if err != nil {
			return nil, err
		}
		name := entryName(it.ContentType, base, "-"+shortID(it.UUID))
		for n := 1; used[name]; n++ {
			suffix := "-" + it.UUID
			if n > 1 {
				suffix = fmt.Sprintf("-%s-%d", it.UUID, n)
			}
			name = entryName(it.ContentType, base, suffix)
		}
		if err := add(name, body); err != nil {
			return nil, fmt.Errorf("zip item %s: %w", it.UUID, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: %w", err)
	}

	return &Artifact{
		Name:        PlaintextZipName,
		ContentType: "application/zip",
		Data:        buf.Bytes(),
	}, nil
}

// entry returns the base file name and the body of an item: title and text
// for notes, the content type and pretty content JSON for everything else.
func entry(it e2ee.Item) (string, []byte, error) {
	if title, text, ok := it.NoteFields(); ok {
		return title, []byte(text), nil
	}

	body, err := prettyContent(it.Content)
	if err != nil {
		return "", nil, fmt.Errorf("zip item %s: %w", it.UUID, err)
	}
	if it.ContentType == e2ee.NoteContentType {
		return "", body, nil
	}
	return it.ContentType, body, nil
}

func entryName(contentType, base, suffix string) string {
	dir := fsname.Sanitize(contentType)
	if dir == "" {
		dir = untypedDir
	}
	return dir + "/" + fsname.BoundedTxtName(base, suffix)
}

func shortID(uuid string) string {
	first, _, _ := strings.Cut(uuid, "-")
	return first
}

func prettyContent(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
