package artifact

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/backupdecrypt/internal/e2ee"
)

func sample() *e2ee.BackupFile {
	return &e2ee.BackupFile{
		Version: "004",
		Items: []e2ee.Item{
			{UUID: "1a2b3c4d-aaaa-bbbb", ContentType: "Note", Content: json.RawMessage(`{"title":"My: note?","text":"hello"}`)},
			{UUID: "9f8e7d6c-1111-2222", ContentType: "Tag", Content: json.RawMessage(`{"title":"work"}`)},
		},
	}
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = string(b)
	}
	return out
}

func names(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestImportFile(t *testing.T) {
	a, err := ImportFile(sample())
	require.NoError(t, err)
	assert.Equal(t, ImportFileName, a.Name)
	assert.True(t, strings.HasPrefix(string(a.Data), "{\n  \""))

	var back e2ee.BackupFile
	require.NoError(t, json.Unmarshal(a.Data, &back))
	require.Len(t, back.Items, 2)
	assert.Equal(t, "1a2b3c4d-aaaa-bbbb", back.Items[0].UUID)
}

func TestPlaintextZip_Layout(t *testing.T) {
	a, err := PlaintextZip(sample(), time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, PlaintextZipName, a.Name)
	assert.Equal(t, "application/zip", a.ContentType)

	files := readZip(t, a.Data)
	assert.Equal(t, []string{
		"Note/My_ note_-1a2b3c4d.txt",
		"Standard Notes Backup and Import File.txt",
		"Tag/Tag-9f8e7d6c.txt",
	}, names(files))

	assert.Equal(t, "hello", files["Note/My_ note_-1a2b3c4d.txt"])
	assert.Equal(t, "{\n  \"title\": \"work\"\n}", files["Tag/Tag-9f8e7d6c.txt"])

	var manifest e2ee.BackupFile
	require.NoError(t, json.Unmarshal([]byte(files["Standard Notes Backup and Import File.txt"]), &manifest))
	assert.Len(t, manifest.Items, 2)
}

func TestPlaintextZip_CollisionsUseFullUUID(t *testing.T) {
	backup := &e2ee.BackupFile{Items: []e2ee.Item{
		{UUID: "abc-1", ContentType: "Note", Content: json.RawMessage(`{"title":"Same","text":"one"}`)},
		{UUID: "abc-2", ContentType: "Note", Content: json.RawMessage(`{"title":"Same","text":"two"}`)},
		{UUID: "abc-2", ContentType: "Note", Content: json.RawMessage(`{"title":"Same","text":"three"}`)},
	}}
	a, err := PlaintextZip(backup, time.Now())
	require.NoError(t, err)

	files := readZip(t, a.Data)
	assert.Equal(t, "one", files["Note/Same-abc.txt"])
	assert.Equal(t, "two", files["Note/Same-abc-2.txt"])
	assert.Equal(t, "three", files["Note/Same-abc-2-2.txt"])
}

func TestPlaintextZip_EdgeItems(t *testing.T) {
	backup := &e2ee.BackupFile{Items: []e2ee.Item{
		{UUID: "n1", ContentType: "Note", Content: json.RawMessage(`{"text":"untitled"}`)},
		{UUID: "n2", ContentType: "Note", Content: json.RawMessage(`"not an object"`)},
		{UUID: "x1", ContentType: "", Content: json.RawMessage(`{}`)},
		{UUID: "t1", ContentType: "SN|Theme", Content: nil},
		{UUID: "long", ContentType: "Note", Content: json.RawMessage(`{"title":"` + strings.Repeat("é", 80) + `","text":""}`)},
	}}
	a, err := PlaintextZip(backup, time.Now())
	require.NoError(t, err)

	files := readZip(t, a.Data)
	assert.Equal(t, "untitled", files["Note/-n1.txt"])
	assert.Equal(t, `"not an object"`, files["Note/-n2.txt"])
	assert.Equal(t, "{}", files["untyped/-x1.txt"])
	assert.Equal(t, "null", files["SN_Theme/SN_Theme-t1.txt"])

	for name := range files {
		base := name[strings.LastIndex(name, "/")+1:]
		assert.LessOrEqual(t, len(base), 100, name)
	}
}
