// Package admin implements the offline tooling that maintains the
// configuration table: an interactive selector that adds log groups, plus
// listing and removal. The export function never uses this package.
package admin

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/logexport/internal/export"
	"github.com/ajitpratap0/logexport/internal/store"
	"github.com/ajitpratap0/logexport/pkg/errors"
	"github.com/ajitpratap0/logexport/pkg/logger"
)

var (
	// ErrNoLogGroups is returned when the account has no log groups
	ErrNoLogGroups = stderrors.New("no log groups found in your AWS account")
	// ErrBucketRequired is returned when the bucket prompt is left empty
	ErrBucketRequired = stderrors.New("S3 bucket name is required")
	// ErrInputClosed is returned when input ends before the dialogue finishes
	ErrInputClosed = stderrors.New("input closed")
)

// createdAtLayout is ISO-8601 local time without a zone
const createdAtLayout = "2006-01-02T15:04:05.000000"

// Summary counts the outcome of an add session.
type Summary struct {
	Added  []string
	Failed map[string]error
}

// Session runs the interactive add dialogue over in/out.
type Session struct {
	lister export.Lister
	writer store.Writer
	in     *bufio.Scanner
	out    io.Writer
	now    func() time.Time
}

// NewSession creates a dialogue reading answers from in and writing prompts
// to out.
func NewSession(lister export.Lister, writer store.Writer, in io.Reader, out io.Writer) *Session {
	return &Session{
		lister: lister,
		writer: writer,
		in:     bufio.NewScanner(in),
		out:    out,
		now:    time.Now,
	}
}

// Add lists the log groups, asks which to export and where, and writes one
// configuration entry per selected group. Write failures are reported per
// group and do not stop the remaining writes.
func (s *Session) Add(ctx context.Context) (*Summary, error) {
	fmt.Fprintln(s.out, "Fetching CloudWatch log groups...")
	groups, err := s.lister.ListLogGroups(ctx)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, ErrNoLogGroups
	}
	s.display(groups)

	selected, err := s.selectGroups(groups)
	if err != nil {
		return nil, err
	}

	bucket, err := s.prompt("\nS3 Bucket Name: ")
	if err != nil {
		return nil, err
	}
	if bucket == "" {
		return nil, ErrBucketRequired
	}
	prefix, err := s.prompt("S3 Prefix (optional): ")
	if err != nil {
		return nil, err
	}

	summary := &Summary{Failed: make(map[string]error)}
	createdAt := s.now().Format(createdAtLayout)
	for _, g := range selected {
		entry := store.Entry{
			LogGroupName: g.Name,
			Bucket:       bucket,
			Prefix:       prefix,
			CreatedAt:    createdAt,
		}
		if err := s.writer.PutEntry(ctx, entry); err != nil {
			logger.Get().Debug("put entry failed", zap.String("log_group", g.Name), zap.Error(err))
			fmt.Fprintf(s.out, "Error adding log group %s: %v\n", g.Name, err)
			summary.Failed[g.Name] = err
			continue
		}
		fmt.Fprintf(s.out, "Added: %s\n", g.Name)
		summary.Added = append(summary.Added, g.Name)
	}

	if len(summary.Added) > 0 {
		fmt.Fprintf(s.out, "\nSuccessfully added %d log group(s) to the configuration\n", len(summary.Added))
	} else {
		fmt.Fprintln(s.out, "\nNo log groups were added to the configuration")
	}
	return summary, nil
}

func (s *Session) display(groups []export.LogGroup) {
	fmt.Fprintln(s.out, "\nAvailable CloudWatch Log Groups:")
	fmt.Fprintln(s.out, "-------------------------------")
	for i, g := range groups {
		fmt.Fprintf(s.out, "%3d. %s (%.2f MB, created: %s)\n",
			i+1, g.Name, g.StoredMB(), g.CreationTime.Format("2006-01-02"))
	}
	fmt.Fprintln(s.out)
}

// selectGroups prompts until a selection is made and, where required,
// confirmed with "y".
func (s *Session) selectGroups(groups []export.LogGroup) ([]export.LogGroup, error) {
	for {
		answer, err := s.prompt(fmt.Sprintf(
			"Select log groups (1-%d, comma-separated, 'all', or regex pattern): ", len(groups)))
		if err != nil {
			return nil, err
		}

		sel, err := ParseSelection(answer, groups)
		if err != nil {
			fmt.Fprintln(s.out, errorMessage(err))
			continue
		}
		if !sel.Confirm {
			return sel.Groups, nil
		}

		fmt.Fprintf(s.out, "\nSelected %d log group(s):\n", len(sel.Groups))
		for _, g := range sel.Groups {
			fmt.Fprintf(s.out, "- %s\n", g.Name)
		}
		confirm, err := s.prompt("\nConfirm selection (y/n): ")
		if err != nil {
			return nil, err
		}
		if strings.EqualFold(confirm, "y") {
			return sel.Groups, nil
		}
	}
}

func (s *Session) prompt(question string) (string, error) {
	fmt.Fprint(s.out, question)
	if !s.in.Scan() {
		if err := s.in.Err(); err != nil {
			return "", errors.Wrap(err, errors.ErrorTypeInternal, "failed to read input")
		}
		return "", ErrInputClosed
	}
	return strings.TrimSpace(s.in.Text()), nil
}

// errorMessage returns the user-facing part of a selection error
func errorMessage(err error) string {
	var e *errors.Error
	if stderrors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}

// List prints every configured entry as a table
func List(ctx context.Context, repo store.Repository, out io.Writer) (int, error) {
	entries, err := repo.ListEntries(ctx)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No log group configurations found")
		return 0, nil
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LOG GROUP\tBUCKET\tPREFIX\tCREATED")
	for _, e := range entries {
		prefix := e.Prefix
		if prefix == "" {
			prefix = "-"
		}
		created := e.CreatedAt
		if created == "" {
			created = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.LogGroupName, e.Bucket, prefix, created)
	}
	return len(entries), w.Flush()
}

// Remove deletes the entries for names, reporting each. It returns the
// number removed and the first error seen.
func Remove(ctx context.Context, writer store.Writer, names []string, out io.Writer) (int, error) {
	var firstErr error
	removed := 0
	for _, name := range names {
		if err := writer.DeleteEntry(ctx, name); err != nil {
			fmt.Fprintf(out, "Error removing log group %s: %v\n", name, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fmt.Fprintf(out, "Removed: %s\n", name)
		removed++
	}
	return removed, firstErr
}
