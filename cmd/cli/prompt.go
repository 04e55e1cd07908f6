package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/and161185/gk-vault/internal/errs"
	"github.com/and161185/gk-vault/internal/passgen"
	"github.com/and161185/gk-vault/internal/vault"
)

// envMasterPassword is consulted only when stdin is not a terminal.
const envMasterPassword = "GK_MASTER_PASSWORD"

const (
	maxPromptAttempts = 3
	defaultGenLength  = 16
)

var _ vault.PasswordSource = (*prompter)(nil)

// prompter reads answers from stdin and writes questions to out.
type prompter struct {
	in     *os.File
	r      *bufio.Reader
	out    io.Writer
	getenv func(string) string
	tty    bool
}

func newPrompter(in *os.File, out io.Writer) *prompter {
	return &prompter{
		in:     in,
		r:      bufio.NewReader(in),
		out:    out,
		getenv: os.Getenv,
		tty:    in != nil && term.IsTerminal(int(in.Fd())),
	}
}

// MasterPassword asks for the password of an existing vault.
func (p *prompter) MasterPassword() (string, error) {
	if pw, ok := p.fromEnv(); ok {
		return pw, nil
	}
	return p.Secret("Master password: ")
}

// NewMasterPassword runs the first-run dialog: generate a password or enter one twice.
func (p *prompter) NewMasterPassword() (string, error) {
	if pw, ok := p.fromEnv(); ok {
		return pw, nil
	}
	fmt.Fprintln(p.out, "No vault found, creating a new one.")
	gen, err := p.Confirm("Generate a master password?")
	if err != nil {
		return "", err
	}
	if gen {
		pw, err := passgen.Generate(defaultGenLength)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(p.out, "Your master password (shown once, store it safely): %s\n", pw)
		return pw, nil
	}

	for i := 0; i < maxPromptAttempts; i++ {
		pw, err := p.Secret("New master password: ")
		if err != nil {
			return "", err
		}
		if utf8.RuneCountInString(pw) < passgen.MinLength || !passgen.ValidateComplexity(pw) {
			fmt.Fprintf(p.out, "Use at least %d characters with lower and upper case letters, a digit and a symbol.\n", passgen.MinLength)
			continue
		}
		again, err := p.Secret("Repeat master password: ")
		if err != nil {
			return "", err
		}
		if again != pw {
			fmt.Fprintln(p.out, "Passwords do not match.")
			continue
		}
		return pw, nil
	}
	return "", fmt.Errorf("%w: no acceptable master password entered", errs.ErrValidation)
}

func (p *prompter) fromEnv() (string, bool) {
	if p.tty {
		return "", false
	}
	pw := p.getenv(envMasterPassword)
	return pw, pw != ""
}

// Line prints label and reads one line without its terminator.
func (p *prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	s, err := p.r.ReadString('\n')
	if err != nil {
		if !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read input: %w", err)
		}
		if s == "" {
			return "", fmt.Errorf("%w: unexpected end of input", errs.ErrValidation)
		}
	}
	return strings.TrimRight(s, "\r\n"), nil
}

// Secret reads a line with echo disabled when stdin is a terminal.
func (p *prompter) Secret(label string) (string, error) {
	if !p.tty {
		return p.Line(label)
	}
	fmt.Fprint(p.out, label)
	b, err := term.ReadPassword(int(p.in.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

// Confirm asks a yes/no question; anything but y/yes is no.
func (p *prompter) Confirm(label string) (bool, error) {
	s, err := p.Line(label + " [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Length asks for a password length; empty input selects def.
func (p *prompter) Length(def int) (int, error) {
	for i := 0; i < maxPromptAttempts; i++ {
		s, err := p.Line(fmt.Sprintf("Password length [%d-%d, default %d]: ", passgen.MinLength, passgen.MaxLength, def))
		if err != nil {
			return 0, err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return def, nil
		}
		if passgen.ValidateLength(s) {
			n, _ := strconv.Atoi(s)
			return n, nil
		}
		fmt.Fprintf(p.out, "Length must be a number from %d to %d.\n", passgen.MinLength, passgen.MaxLength)
	}
	return 0, fmt.Errorf("%w: invalid password length", errs.ErrValidation)
}
