package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/and161185/gk-vault/internal/errs"
	"github.com/and161185/gk-vault/internal/export"
	"github.com/and161185/gk-vault/internal/filesearch"
	"github.com/and161185/gk-vault/internal/model"
	"github.com/and161185/gk-vault/internal/passgen"
)

const mask = "********"

// entryView is the JSON shape printed for an entry.
type entryView struct {
	ID        int64  `json:"id"`
	Service   string `json:"service"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	URL       string `json:"url,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toView(e model.Entry, show bool) entryView {
	pw := e.Secret
	if !show {
		pw = mask
	}
	return entryView{
		ID:        e.ID,
		Service:   e.Service,
		Username:  e.Username,
		Password:  pw,
		URL:       e.URL,
		Notes:     e.Notes,
		CreatedAt: model.FormatTime(e.CreatedAt),
		UpdatedAt: model.FormatTime(e.UpdatedAt),
	}
}

func toViews(entries []model.Entry, show bool) []entryView {
	out := make([]entryView, 0, len(entries))
	for _, e := range entries {
		out = append(out, toView(e, show))
	}
	return out
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func (a *app) flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func parse(fs *pflag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	return nil
}

func requireID(fs *pflag.FlagSet, id int64) error {
	if !fs.Changed("id") {
		return fmt.Errorf("%w: --id is required", errs.ErrValidation)
	}
	if id <= 0 {
		return fmt.Errorf("%w: id must be positive", errs.ErrValidation)
	}
	return nil
}

// entryFlags are the field flags shared by add and update.
type entryFlags struct {
	fs       *pflag.FlagSet
	service  *string
	username *string
	password *string
	url      *string
	notes    *string
	generate *bool
	length   *int
}

func bindEntryFlags(fs *pflag.FlagSet) *entryFlags {
	return &entryFlags{
		fs:       fs,
		service:  fs.String("service", "", "service name"),
		username: fs.String("username", "", "account username"),
		password: fs.String("password", "", "secret to store"),
		url:      fs.String("url", "", "service URL"),
		notes:    fs.String("notes", "", "free-form notes"),
		generate: fs.Bool("generate", false, "generate the secret"),
		length:   fs.IntP("length", "l", 0, "generated secret length"),
	}
}

func (f *entryFlags) validate() error {
	if *f.generate && f.fs.Changed("password") {
		return fmt.Errorf("%w: --password and --generate are exclusive", errs.ErrValidation)
	}
	if f.fs.Changed("length") && !*f.generate {
		return fmt.Errorf("%w: --length needs --generate", errs.ErrValidation)
	}
	return nil
}

// overlay copies every flag that was set onto in.
func (f *entryFlags) overlay(in *model.EntryInput) {
	if f.fs.Changed("service") {
		in.Service = *f.service
	}
	if f.fs.Changed("username") {
		in.Username = *f.username
	}
	if f.fs.Changed("password") {
		in.Secret = *f.password
	}
	if f.fs.Changed("url") {
		in.URL = *f.url
	}
	if f.fs.Changed("notes") {
		in.Notes = *f.notes
	}
}

// generated returns a new secret when --generate is set; ok reports whether it was.
func (a *app) generated(f *entryFlags) (secret string, ok bool, err error) {
	if !*f.generate {
		return "", false, nil
	}
	n := *f.length
	if !f.fs.Changed("length") {
		n = defaultGenLength
	}
	secret, err = passgen.Generate(n)
	if err != nil {
		return "", false, err
	}
	return secret, true, nil
}

func (a *app) cmdGenerate(args []string) error {
	fs := a.flagSet("generate")
	length := fs.IntP("length", "l", 0, "password length")
	if err := parse(fs, args); err != nil {
		return err
	}
	n := *length
	if !fs.Changed("length") {
		var err error
		if n, err = a.prompt.Length(defaultGenLength); err != nil {
			return err
		}
	}
	pw, err := passgen.Generate(n)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, pw)
	return nil
}

func (a *app) cmdAdd(ctx context.Context, args []string) error {
	fs := a.flagSet("add")
	f := bindEntryFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := f.validate(); err != nil {
		return err
	}

	store, closeFn, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	var in model.EntryInput
	f.overlay(&in)
	if !fs.Changed("service") {
		if in.Service, err = a.prompt.Line("Service: "); err != nil {
			return err
		}
	}
	if !fs.Changed("username") {
		if in.Username, err = a.prompt.Line("Username: "); err != nil {
			return err
		}
	}
	secret, gen, err := a.generated(f)
	if err != nil {
		return err
	}
	switch {
	case gen:
		in.Secret = secret
	case !fs.Changed("password"):
		if in.Secret, err = a.prompt.Secret("Password (empty to generate): "); err != nil {
			return err
		}
		if in.Secret == "" {
			n, err := a.prompt.Length(defaultGenLength)
			if err != nil {
				return err
			}
			if in.Secret, err = passgen.Generate(n); err != nil {
				return err
			}
			gen = true
		}
	}

	id, err := store.Create(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "added entry %d\n", id)
	if gen {
		fmt.Fprintf(a.out, "generated password: %s\n", in.Secret)
	}
	return nil
}

func (a *app) cmdList(ctx context.Context, args []string) error {
	fs := a.flagSet("list")
	show := fs.Bool("show", false, "print secrets in clear")
	if err := parse(fs, args); err != nil {
		return err
	}
	store, closeFn, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	entries, err := store.ReadAll(ctx)
	if err != nil {
		return err
	}
	printJSON(a.out, toViews(entries, *show))
	return nil
}

func (a *app) cmdGet(ctx context.Context, args []string) error {
	fs := a.flagSet("get")
	id := fs.Int64("id", 0, "entry id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := requireID(fs, *id); err != nil {
		return err
	}
	store, closeFn, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	e, err := store.ReadByID(ctx, *id)
	if err != nil {
		return err
	}
	printJSON(a.out, toView(e, true))
	return nil
}

func (a *app) cmdSearch(ctx context.Context, args []string) error {
	fs := a.flagSet("search")
	show := fs.Bool("show", false, "print secrets in clear")
	if err := parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: search needs a query", errs.ErrValidation)
	}
	query := strings.Join(fs.Args(), " ")

	store, closeFn, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	entries, err := store.Search(ctx, query)
	if err != nil {
		return err
	}
	printJSON(a.out, toViews(entries, *show))
	return nil
}

func (a *app) cmdUpdate(ctx context.Context, args []string) error {
	fs := a.flagSet("update")
	id := fs.Int64("id", 0, "entry id")
	f := bindEntryFlags(fs)
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := requireID(fs, *id); err != nil {
		return err
	}
	if err := f.validate(); err != nil {
		return err
	}

	store, closeFn, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	cur, err := store.ReadByID(ctx, *id)
	if err != nil {
		return err
	}
	in := model.EntryInput{
		Service:  cur.Service,
		Username: cur.Username,
		Secret:   cur.Secret,
		URL:      cur.URL,
		Notes:    cur.Notes,
	}
	f.overlay(&in)
	secret, gen, err := a.generated(f)
	if err != nil {
		return err
	}
	if gen {
		in.Secret = secret
	}

	if err := store.Update(ctx, *id, in); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "updated entry %d\n", *id)
	if gen {
		fmt.Fprintf(a.out, "generated password: %s\n", in.Secret)
	}
	return nil
}

func (a *app) cmdDelete(ctx context.Context, args []string) error {
	fs := a.flagSet("delete")
	id := fs.Int64("id", 0, "entry id")
	yes := fs.BoolP("yes", "y", false, "skip confirmation")
	if err := parse(fs, args); err != nil {
		return err
	}
	if err := requireID(fs, *id); err != nil {
		return err
	}

	store, closeFn, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if !*yes {
		e, err := store.ReadByID(ctx, *id)
		if err != nil {
			return err
		}
		ok, err := a.prompt.Confirm(fmt.Sprintf("Delete entry %d (%s / %s)?", e.ID, e.Service, e.Username))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(a.out, "aborted")
			return nil
		}
	}
	if err := store.Delete(ctx, *id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "deleted entry %d\n", *id)
	return nil
}

func (a *app) cmdExport(ctx context.Context, args []string) error {
	fs := a.flagSet("export")
	out := fs.StringP("out", "o", "-", "destination file ('-' = stdout)")
	if err := parse(fs, args); err != nil {
		return err
	}
	store, closeFn, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	entries, err := store.ReadAll(ctx)
	if err != nil {
		return err
	}
	if *out == "-" {
		return export.WriteCSV(a.out, entries)
	}

	fh, err := os.OpenFile(*out, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("create export: %w", err)
	}
	if err := export.WriteCSV(fh, entries); err != nil {
		_ = fh.Close()
		return fmt.Errorf("write export: %w", err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("close export: %w", err)
	}
	a.log.Info("entries exported", zap.Int("count", len(entries)))
	fmt.Fprintf(a.errOut, "exported %d entries to %s\n", len(entries), *out)
	return nil
}

func (a *app) cmdImport(ctx context.Context, args []string) error {
	fs := a.flagSet("import")
	in := fs.StringP("in", "i", "", "CSV file produced by export")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("%w: --in is required", errs.ErrValidation)
	}
	fh, err := os.Open(*in)
	if err != nil {
		return fmt.Errorf("open import: %w", err)
	}
	rows, err := export.ReadCSV(fh)
	_ = fh.Close()
	if err != nil {
		return err
	}

	store, closeFn, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	for i, row := range rows {
		if _, err := store.Import(ctx, row); err != nil {
			return fmt.Errorf("import row %d (after %d imported): %w", i+1, i, err)
		}
	}
	a.log.Info("entries imported", zap.Int("count", len(rows)))
	fmt.Fprintf(a.out, "imported %d entries\n", len(rows))
	return nil
}

func (a *app) cmdFind(ctx context.Context, args []string) error {
	fs := a.flagSet("find")
	root := fs.String("path", ".", "directory to search")
	name := fs.String("name", "", "file name fragment")
	if err := parse(fs, args); err != nil {
		return err
	}
	if !fs.Changed("name") {
		var err error
		if *name, err = a.prompt.Line("File name contains: "); err != nil {
			return err
		}
	}
	paths, err := filesearch.Find(ctx, *root, *name)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintln(a.out, p)
	}
	if len(paths) == 0 {
		fmt.Fprintln(a.errOut, "no files found")
	}
	return nil
}
