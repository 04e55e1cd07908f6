package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/and161185/gk-vault/internal/errs"
	"github.com/and161185/gk-vault/internal/model"
)

func TestWriteCSV_Layout(t *testing.T) {
	at := time.Date(2026, 2, 3, 4, 5, 6, 7, time.UTC)
	entries := []model.Entry{{
		ID: 1, Service: "github", Username: "octocat", Secret: `p,a"ss`,
		URL: "https://github.com", Notes: "line1\nline2", CreatedAt: at, UpdatedAt: at,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, entries))

	lines := strings.SplitN(buf.String(), "\n", 2)
	assert.Equal(t, "Service,Username,Password,URL,Notes,Created At,Updated At", lines[0])
	assert.Contains(t, lines[1], `"p,a""ss"`)
	assert.Contains(t, lines[1], "2026-02-03T04:05:06.000000007Z")
}

func TestReadCSV_ParsesExport(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 890, time.UTC)
	entries := []model.Entry{
		{Service: "a", Username: "u1", Secret: "s1", URL: "x", Notes: "n", CreatedAt: now, UpdatedAt: now},
		{Service: "b", Username: "u2", Secret: "multi\nline", CreatedAt: now, UpdatedAt: now},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, entries))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.Entry{
		Service: "a", Username: "u1", Secret: "s1", URL: "x", Notes: "n",
		CreatedAt: now, UpdatedAt: now,
	}, got[0])
	assert.Equal(t, "multi\nline", got[1].Secret)
}

func TestReadCSV_Timestamps(t *testing.T) {
	head := strings.Join(Header, ",") + "\n"

	got, err := ReadCSV(strings.NewReader(head + "svc,u,p,,,,\n"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].CreatedAt.IsZero())
	assert.True(t, got[0].UpdatedAt.IsZero())

	_, err = ReadCSV(strings.NewReader(head + "svc,u,p,,,yesterday,\n"))
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestReadCSV_Rejects(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"wrong header": "a,b,c,d,e,f,g\n",
		"short row":    strings.Join(Header, ",") + "\nonly,three,fields\n",
	}
	for name, in := range cases {
		_, err := ReadCSV(strings.NewReader(in))
		require.ErrorIs(t, err, errs.ErrValidation, name)
	}
}
