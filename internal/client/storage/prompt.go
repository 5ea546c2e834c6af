package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// Test seams for the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// ErrEmptySession is returned when the user enters no session value.
var ErrEmptySession = errors.New("empty session value")

// PromptForSession asks for the session cookie value issued to the browser
// after the OAuth2 login. On a terminal the input is not echoed; otherwise
// the next line of scanner is used.
func PromptForSession(scanner *bufio.Scanner, fd int, w io.Writer) (string, error) {
	fmt.Fprintf(w, "Paste the %s cookie from your browser: ", SessionCookieName)

	var value string
	if isTerminal(fd) {
		b, err := readPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", fmt.Errorf("read session: %w", err)
		}
		value = string(b)
	} else {
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("read session: %w", err)
			}
			return "", io.ErrUnexpectedEOF
		}
		value = scanner.Text()
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return "", ErrEmptySession
	}
	return value, nil
}
