package e2ee

import (
	"context"
	"fmt"
)

// ChallengeReason says why the runtime needs a credential.
type ChallengeReason int

const (
	ReasonDecryptEncryptedFile ChallengeReason = iota + 1
	ReasonApplicationUnlock
	ReasonAccessProtectedNote
	ReasonImportFile
)

func (r ChallengeReason) String() string {
	switch r {
	case ReasonDecryptEncryptedFile:
		return "DecryptEncryptedFile"
	case ReasonApplicationUnlock:
		return "ApplicationUnlock"
	case ReasonAccessProtectedNote:
		return "AccessProtectedNote"
	case ReasonImportFile:
		return "ImportFile"
	default:
		return fmt.Sprintf("ChallengeReason(%d)", int(r))
	}
}

// Prompt is one credential request within a challenge.
type Prompt struct {
	ID     int
	Title  string
	Secure bool
}

// Challenge is a runtime-issued request for credentials.
type Challenge struct {
	Reason  ChallengeReason
	Heading string
	Prompts []Prompt
}

// ChallengeValue answers one prompt.
type ChallengeValue struct {
	Prompt Prompt
	Value  string
}

// ChallengeResponder answers challenges on behalf of the host. Returning an
// error aborts the operation that raised the challenge.
type ChallengeResponder interface {
	ReceiveChallenge(ctx context.Context, ch Challenge) ([]ChallengeValue, error)
}

// ChallengeResponderFunc adapts a function to ChallengeResponder.
type ChallengeResponderFunc func(ctx context.Context, ch Challenge) ([]ChallengeValue, error)

func (f ChallengeResponderFunc) ReceiveChallenge(ctx context.Context, ch Challenge) ([]ChallengeValue, error) {
	return f(ctx, ch)
}
