package admin

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/logexport/internal/export"
	"github.com/ajitpratap0/logexport/internal/store"
	"github.com/ajitpratap0/logexport/pkg/errors"
	"github.com/ajitpratap0/logexport/pkg/testutil"
)

var created = time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC)

func sampleGroups() []export.LogGroup {
	return []export.LogGroup{
		{Name: "/aws/lambda/ingest", StoredBytes: 3 * 1024 * 1024, CreationTime: created},
		{Name: "/service/api", StoredBytes: 512 * 1024, CreationTime: created},
		{Name: "/service/worker", CreationTime: created},
	}
}

type staticLister struct {
	groups []export.LogGroup
	err    error
}

func (l staticLister) ListLogGroups(context.Context) ([]export.LogGroup, error) {
	return l.groups, l.err
}

type flakyWriter struct {
	*store.Memory
	fail map[string]bool
}

func (w flakyWriter) PutEntry(ctx context.Context, e store.Entry) error {
	if w.fail[e.LogGroupName] {
		return stderrors.New("throttled")
	}
	return w.Memory.PutEntry(ctx, e)
}

func TestParseSelection(t *testing.T) {
	groups := sampleGroups()

	tests := []struct {
		name    string
		input   string
		want    []string
		confirm bool
		wantErr string
	}{
		{name: "all", input: "ALL", want: []string{"/aws/lambda/ingest", "/service/api", "/service/worker"}},
		{name: "single index", input: " 2 ", want: []string{"/service/api"}, confirm: true},
		{name: "index list", input: "3, 1", want: []string{"/service/worker", "/aws/lambda/ingest"}, confirm: true},
		{name: "duplicates collapse", input: "1,1", want: []string{"/aws/lambda/ingest"}, confirm: true},
		{name: "regex search", input: "/^/service/", want: []string{"/service/api", "/service/worker"}, confirm: true},
		{name: "regex matches anywhere", input: "/work/", want: []string{"/service/worker"}, confirm: true},
		{name: "out of range", input: "4", wantErr: "between 1 and 3"},
		{name: "zero", input: "0", wantErr: "invalid selection: 0"},
		{name: "not a number", input: "api", wantErr: "invalid input"},
		{name: "empty element", input: "1,,2", wantErr: "invalid input"},
		{name: "no match", input: "/billing/", wantErr: "no log groups matched"},
		{name: "bad regex", input: "/[/", wantErr: "invalid regex"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := ParseSelection(tt.input, groups)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
				return
			}
			require.NoError(t, err)

			var names []string
			for _, g := range sel.Groups {
				names = append(names, g.Name)
			}
			assert.Equal(t, tt.want, names)
			assert.Equal(t, tt.confirm, sel.Confirm)
		})
	}
}

func fixedNow() time.Time {
	return time.Date(2024, 3, 10, 9, 30, 0, 0, time.Local)
}

func TestSession_Add(t *testing.T) {
	testutil.TestLogger(t)
	mem := store.NewMemory()
	in := strings.NewReader("9\n/service/\nn\n2,3\ny\nlogs-bucket\napp-logs\n")
	var out bytes.Buffer

	s := NewSession(staticLister{groups: sampleGroups()}, mem, in, &out)
	s.now = fixedNow

	summary, err := s.Add(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/service/api", "/service/worker"}, summary.Added)
	assert.Empty(t, summary.Failed)

	entries, err := mem.ListEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, store.Entry{
		LogGroupName: "/service/api",
		Bucket:       "logs-bucket",
		Prefix:       "app-logs",
		CreatedAt:    "2024-03-10T09:30:00.000000",
	}, entries[0])

	text := out.String()
	assert.Contains(t, text, "  1. /aws/lambda/ingest (3.00 MB, created: 2023-06-01)")
	assert.Contains(t, text, "  2. /service/api (0.50 MB, created: 2023-06-01)")
	assert.Contains(t, text, "invalid selection: 9, please enter numbers between 1 and 3")
	assert.Contains(t, text, "Added: /service/worker")
	assert.Contains(t, text, "Successfully added 2 log group(s) to the configuration")
}

func TestSession_AddAllSkipsConfirmation(t *testing.T) {
	testutil.TestLogger(t)
	mem := store.NewMemory()
	w := flakyWriter{Memory: mem, fail: map[string]bool{"/service/api": true}}
	var out bytes.Buffer

	s := NewSession(staticLister{groups: sampleGroups()}, w, strings.NewReader("all\nlogs-bucket\n\n"), &out)
	summary, err := s.Add(context.Background())
	require.NoError(t, err)

	assert.Len(t, summary.Added, 2)
	require.Contains(t, summary.Failed, "/service/api")
	assert.Contains(t, out.String(), "Error adding log group /service/api: throttled")

	entries, err := mem.ListEntries(context.Background())
	require.NoError(t, err)
	for _, e := range entries {
		assert.Empty(t, e.Prefix)
	}
}

func TestSession_AddErrors(t *testing.T) {
	testutil.TestLogger(t)

	tests := []struct {
		name   string
		lister staticLister
		input  string
		want   error
	}{
		{name: "no log groups", lister: staticLister{}, want: ErrNoLogGroups},
		{name: "empty bucket", lister: staticLister{groups: sampleGroups()}, input: "all\n\n", want: ErrBucketRequired},
		{name: "input ends", lister: staticLister{groups: sampleGroups()}, input: "1\n", want: ErrInputClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := store.NewMemory()
			s := NewSession(tt.lister, mem, strings.NewReader(tt.input), &bytes.Buffer{})
			_, err := s.Add(context.Background())
			assert.ErrorIs(t, err, tt.want)

			entries, _ := mem.ListEntries(context.Background())
			assert.Empty(t, entries)
		})
	}
}

func TestList(t *testing.T) {
	var out bytes.Buffer
	n, err := List(context.Background(), store.NewMemory(
		store.Entry{LogGroupName: "/service/api", Bucket: "logs-bucket", Prefix: "api"},
		store.Entry{LogGroupName: "/service/worker", Bucket: "logs-bucket"},
	), &out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "LOG GROUP"))
	assert.Contains(t, lines[2], "/service/worker")
	assert.Contains(t, lines[2], "-")
}

func TestList_Empty(t *testing.T) {
	var out bytes.Buffer
	n, err := List(context.Background(), store.NewMemory(), &out)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, "No log group configurations found\n", out.String())
}

func TestRemove(t *testing.T) {
	mem := store.NewMemory(store.Entry{LogGroupName: "/a", Bucket: "b"}, store.Entry{LogGroupName: "/b", Bucket: "b"})
	var out bytes.Buffer

	n, err := Remove(context.Background(), mem, []string{"/a"}, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "Removed: /a\n", out.String())

	entries, _ := mem.ListEntries(context.Background())
	assert.Equal(t, []store.Entry{{LogGroupName: "/b", Bucket: "b"}}, entries)
}
