package decrypt

import "errors"

var (
	ErrNoFileSelected       = errors.New("no file selected")
	ErrUnreadableFile       = errors.New("backup file could not be read")
	ErrUnsupportedChallenge = errors.New("unsupported challenge")
	ErrNoItemDecrypted      = errors.New("no item could be decrypted")
	ErrBusy                 = errors.New("a decryption is already in progress")
)

// User facing messages.
const (
	MsgNoFileSelected = "You must select a file first."
	MsgBusy           = "A decryption is already in progress. Please wait for it to finish."
	MsgGeneric        = "An error occurred while trying to decrypt your data. Ensure your password is correct and try again."
)

// UserMessage maps an error returned by Service.Decrypt to the text shown to
// the user. Details stay in the logs.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoFileSelected):
		return MsgNoFileSelected
	case errors.Is(err, ErrBusy):
		return MsgBusy
	default:
		return MsgGeneric
	}
}
