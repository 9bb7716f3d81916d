package e2ee

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Environment tags the kind of host the runtime runs in.
type Environment string

const (
	EnvironmentWeb     Environment = "web"
	EnvironmentDesktop Environment = "desktop"
	EnvironmentCLI     Environment = "cli"
)

// Platform tags the operating system family of the host.
type Platform string

const (
	PlatformMacWeb     Platform = "mac-web"
	PlatformWindowsWeb Platform = "windows-web"
	PlatformLinuxWeb   Platform = "linux-web"
)

// PlatformFromGOOS maps a runtime.GOOS value to a Platform, defaulting to
// PlatformLinuxWeb for anything unrecognised.
func PlatformFromGOOS(goos string) Platform {
	switch {
	case strings.Contains(goos, "darwin"), strings.Contains(goos, "mac"):
		return PlatformMacWeb
	case strings.Contains(goos, "win"):
		return PlatformWindowsWeb
	default:
		return PlatformLinuxWeb
	}
}

// Protocol versions understood by the reference runtime.
const ProtocolVersion004 = "004"

// NoteContentType is the content type of note items.
const NoteContentType = "Note"

// KeyParams are the root key derivation parameters embedded in an encrypted
// backup file. Iterations and MemoryKiB are optional; zero means the
// protocol default.
type KeyParams struct {
	Identifier  string `json:"identifier"`
	PwNonce     string `json:"pw_nonce"`
	Version     string `json:"version"`
	Origination string `json:"origination,omitempty"`
	Iterations  uint32 `json:"iterations,omitempty"`
	MemoryKiB   uint32 `json:"memory,omitempty"`
}

// Item is one record of a backup file. In an encrypted file Content is a
// JSON string holding the envelope and EncItemKey is set; in a decrypted
// file Content is a JSON object and EncItemKey is empty.
type Item struct {
	UUID        string          `json:"uuid"`
	ContentType string          `json:"content_type"`
	Content     json.RawMessage `json:"content"`
	EncItemKey  string          `json:"enc_item_key,omitempty"`
	ItemsKeyID  string          `json:"items_key_id,omitempty"`
	Deleted     bool            `json:"deleted,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
	UpdatedAt   string          `json:"updated_at,omitempty"`
}

// IsEncrypted reports whether the item content is an encrypted envelope.
func (it Item) IsEncrypted() bool {
	c := strings.TrimSpace(string(it.Content))
	return strings.HasPrefix(c, `"`)
}

// ContentObject decodes plaintext content into a map.
func (it Item) ContentObject() (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal(it.Content, &obj); err != nil {
		return nil, fmt.Errorf("item %s content: %w", it.UUID, err)
	}
	return obj, nil
}

// NoteFields returns the title and text of a plaintext note. ok is false
// when the item is not a note or its content cannot be decoded.
func (it Item) NoteFields() (title, text string, ok bool) {
	if it.ContentType != NoteContentType {
		return "", "", false
	}
	var note struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	}
	if err := json.Unmarshal(it.Content, &note); err != nil {
		return "", "", false
	}
	return note.Title, note.Text, true
}

// BackupFile is both the input (possibly encrypted) and output (decrypted)
// backup format.
type BackupFile struct {
	Version   string     `json:"version,omitempty"`
	KeyParams *KeyParams `json:"keyParams,omitempty"`
	Items     []Item     `json:"items"`
}

// ImportResult is the per-item tally of an ImportData call.
type ImportResult struct {
	AffectedItems []Item
	ErrorCount    int
}

// EncryptionIntent selects the serialization of CreateBackupFile.
type EncryptionIntent int

const (
	IntentDecrypted EncryptionIntent = iota + 1
	IntentEncrypted
)

func (i EncryptionIntent) String() string {
	switch i {
	case IntentDecrypted:
		return "decrypted"
	case IntentEncrypted:
		return "encrypted"
	default:
		return fmt.Sprintf("intent(%d)", int(i))
	}
}

// RootKey is the key derived from the file password. Holders wipe it when
// done.
type RootKey []byte
