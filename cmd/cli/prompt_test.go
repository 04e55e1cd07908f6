package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/and161185/gk-vault/internal/errs"
	"github.com/and161185/gk-vault/internal/passgen"
)

func newTestPrompter(t *testing.T, input string, env map[string]string) (*prompter, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	p := newPrompter(stdinFile(t, input), &out)
	p.getenv = func(k string) string { return env[k] }
	return p, &out
}

func Test_prompter_NewMasterPassword_Entered(t *testing.T) {
	p, out := newTestPrompter(t, "n\nweak\n"+testMaster+"\nmismatch\n"+testMaster+"\n"+testMaster+"\n", nil)
	pw, err := p.NewMasterPassword()
	if err != nil {
		t.Fatalf("NewMasterPassword: %v", err)
	}
	if pw != testMaster {
		t.Fatalf("got %q", pw)
	}
	if !strings.Contains(out.String(), "do not match") || !strings.Contains(out.String(), "at least 8") {
		t.Fatalf("missing feedback in %q", out.String())
	}
}

func Test_prompter_NewMasterPassword_GivesUp(t *testing.T) {
	p, _ := newTestPrompter(t, "n\na\nb\nc\n", nil)
	if _, err := p.NewMasterPassword(); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func Test_prompter_NewMasterPassword_Generated(t *testing.T) {
	p, out := newTestPrompter(t, "yes\n", nil)
	pw, err := p.NewMasterPassword()
	if err != nil {
		t.Fatalf("NewMasterPassword: %v", err)
	}
	if len(pw) != defaultGenLength || !strings.Contains(out.String(), pw) {
		t.Fatalf("generated %q not shown in %q", pw, out.String())
	}
	for _, r := range pw {
		if !strings.ContainsRune(passgen.Alphabet, r) {
			t.Fatalf("rune %q outside alphabet", r)
		}
	}
}

func Test_prompter_EnvWhenNotTerminal(t *testing.T) {
	p, _ := newTestPrompter(t, "", map[string]string{envMasterPassword: "from-env"})
	pw, err := p.MasterPassword()
	if err != nil || pw != "from-env" {
		t.Fatalf("MasterPassword = %q, %v", pw, err)
	}
	pw, err = p.NewMasterPassword()
	if err != nil || pw != "from-env" {
		t.Fatalf("NewMasterPassword = %q, %v", pw, err)
	}
}

func Test_prompter_MasterPassword_EOF(t *testing.T) {
	p, _ := newTestPrompter(t, "", nil)
	if _, err := p.MasterPassword(); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation error on empty input, got %v", err)
	}
}

func Test_prompter_Line_TrimsTerminators(t *testing.T) {
	p, _ := newTestPrompter(t, "first\r\nlast", nil)
	for _, want := range []string{"first", "last"} {
		got, err := p.Line("> ")
		if err != nil || got != want {
			t.Fatalf("Line = %q, %v; want %q", got, err, want)
		}
	}
}

func Test_prompter_Length(t *testing.T) {
	p, out := newTestPrompter(t, "abc\n99\n10\n", nil)
	n, err := p.Length(16)
	if err != nil || n != 10 {
		t.Fatalf("Length = %d, %v", n, err)
	}
	if strings.Count(out.String(), "Length must be") != 2 {
		t.Fatalf("expected two retries, output %q", out.String())
	}

	p, _ = newTestPrompter(t, "\n", nil)
	if n, err := p.Length(16); err != nil || n != 16 {
		t.Fatalf("default Length = %d, %v", n, err)
	}

	p, _ = newTestPrompter(t, "1\n2\n3\n", nil)
	if _, err := p.Length(16); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("want validation after retries, got %v", err)
	}
}

func Test_prompter_Confirm(t *testing.T) {
	p, _ := newTestPrompter(t, "Y\nno\n\n", nil)
	for _, want := range []bool{true, false, false} {
		got, err := p.Confirm("ok?")
		if err != nil || got != want {
			t.Fatalf("Confirm = %v, %v; want %v", got, err, want)
		}
	}
}

func Test_prompter_NewMasterPassword_CountsCharacters(t *testing.T) {
	// "Ää1!éé" has ten bytes but only six characters.
	p, out := newTestPrompter(t, "n\nÄä1!éé\n"+testMaster+"\n"+testMaster+"\n", nil)
	pw, err := p.NewMasterPassword()
	if err != nil || pw != testMaster {
		t.Fatalf("NewMasterPassword = %q, %v", pw, err)
	}
	if !strings.Contains(out.String(), "at least 8") {
		t.Fatalf("short non-ASCII password accepted, output %q", out.String())
	}
}
