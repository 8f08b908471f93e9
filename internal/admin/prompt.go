package admin

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/sheetkeeper/internal/shared"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var (
	ErrEmptyPassphrase    = errors.New("passphrase must not be empty")
	ErrPassphraseMismatch = errors.New("passphrases do not match")
)

// ReadNewPassphrase asks for a passphrase twice without echo and returns it
// when both entries agree.
func ReadNewPassphrase(w io.Writer) (string, error) {
	first, err := promptSecret(w, "New encryption passphrase: ")
	if err != nil {
		return "", err
	}
	defer shared.WipeByteArray(first)
	if len(first) == 0 {
		return "", ErrEmptyPassphrase
	}

	second, err := promptSecret(w, "Repeat passphrase: ")
	if err != nil {
		return "", err
	}
	defer shared.WipeByteArray(second)
	if !bytes.Equal(first, second) {
		return "", ErrPassphraseMismatch
	}
	return string(first), nil
}

func promptSecret(w io.Writer, prompt string) ([]byte, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return bytes.TrimSpace(pw), nil
}
