// Package reportstore writes check reports as JSON files with a JSONL index.
package reportstore

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/streakerapp/supacheck/internal/domain"
	"github.com/streakerapp/supacheck/internal/ports"
)

const indexFile = "index.jsonl"

type JSONStore struct {
	rootDir        string
	reportsDirName string
	maskingEnabled bool
	now            func() time.Time
}

type Option func(*JSONStore)

// WithNow is useful for tests.
func WithNow(now func() time.Time) Option {
	return func(s *JSONStore) { s.now = now }
}

func NewJSONStore(root string, cfg domain.OutputConfig, opts ...Option) *JSONStore {
	dir := strings.TrimSpace(cfg.ReportsDir)
	if dir == "" {
		dir = domain.DefaultConfig().Output.ReportsDir
	}

	s := &JSONStore{
		rootDir:        root,
		reportsDirName: dir,
		maskingEnabled: cfg.Masking,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ ports.ReportStore = (*JSONStore)(nil)

func (s *JSONStore) dir() string {
	if filepath.IsAbs(s.reportsDirName) {
		return s.reportsDirName
	}
	return filepath.Join(s.rootDir, s.reportsDirName)
}

// SaveReport writes reports/{ts}_{slug}_{short id}.json and returns the file
// stem as id. The short id keeps runs started in the same second apart.
func (s *JSONStore) SaveReport(report domain.CheckReport) (string, error) {
	dir := s.dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &domain.OpError{
			Op:   "reportstore.mkdir",
			Kind: domain.KindExecution,
			Path: dir,
			Err:  err,
		}
	}

	ts := report.StartedAt
	if ts.IsZero() {
		ts = s.now()
	}
	ts = ts.UTC()

	slug := slugify(projectRef(report.ProjectURL))
	if slug == "" {
		slug = "check"
	}

	filename := fmt.Sprintf("%s_%s_%s.json", ts.Format("20060102T150405Z"), slug, shortID(report.ID))
	id := strings.TrimSuffix(filename, ".json")
	path := filepath.Join(dir, filename)

	f := toFile(report)
	if f.StartedAt.IsZero() {
		f.StartedAt = ts
	}
	if s.maskingEnabled {
		maskFile(&f)
	}

	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return "", &domain.OpError{
			Op:   "reportstore.marshal",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}

	// tmp then rename so a crash never leaves half a report
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return "", &domain.OpError{
			Op:   "reportstore.write",
			Kind: domain.KindExecution,
			Path: tmp,
			Err:  err,
		}
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", &domain.OpError{
			Op:   "reportstore.rename",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}

	if err := s.appendIndex(dir, indexEntry{
		ID:        id,
		File:      filename,
		Email:     report.TestEmail,
		Failures:  f.Failures,
		StartedAt: f.StartedAt,
	}); err != nil {
		return id, &domain.OpError{
			Op:   "reportstore.index",
			Kind: domain.KindExecution,
			Path: filepath.Join(dir, indexFile),
			Err:  err,
		}
	}

	return id, nil
}

// Encode renders a report in the saved artifact format, for stdout.
func Encode(report domain.CheckReport, masking bool) ([]byte, error) {
	f := toFile(report)
	if masking {
		maskFile(&f)
	}
	b, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, &domain.OpError{Op: "reportstore.encode", Kind: domain.KindExecution, Err: err}
	}
	return b, nil
}

type indexEntry struct {
	ID        string    `json:"id"`
	File      string    `json:"file"`
	Email     string    `json:"email"`
	Failures  int       `json:"failures"`
	StartedAt time.Time `json:"started_at"`
}

func (s *JSONStore) appendIndex(dir string, e indexEntry) error {
	line, err := json.Marshal(e)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(dir, indexFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(append(line, '\n'))
	return err
}

// ListReports reads the index in write order. A missing index means no reports.
func (s *JSONStore) ListReports() ([]domain.ReportRef, error) {
	path := filepath.Join(s.dir(), indexFile)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []domain.ReportRef{}, nil
		}
		return nil, &domain.OpError{
			Op:   "reportstore.list",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}
	defer f.Close()

	out := []domain.ReportRef{}
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var e indexEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, &domain.OpError{
				Op:   "reportstore.list",
				Kind: domain.KindInvalidConfig,
				Path: path,
				Err:  fmt.Errorf("line %d: %w", line, err),
			}
		}
		out = append(out, domain.ReportRef{
			ID:        e.ID,
			File:      filepath.Join(s.dir(), e.File),
			Email:     e.Email,
			Failures:  e.Failures,
			StartedAt: e.StartedAt,
		})
	}
	if err := sc.Err(); err != nil {
		return nil, &domain.OpError{
			Op:   "reportstore.list",
			Kind: domain.KindExecution,
			Path: path,
			Err:  err,
		}
	}
	return out, nil
}

// projectRef turns https://abcd.supabase.co into "abcd".
func projectRef(projectURL string) string {
	u, err := url.Parse(projectURL)
	if err != nil || u.Host == "" {
		return projectURL
	}
	host := u.Hostname()
	if i := strings.Index(host, "."); i > 0 && strings.HasSuffix(host, ".supabase.co") {
		return host[:i]
	}
	return host
}

// slugify produces a safe filename component.
const shortIDLen = 8

// shortID is the leading alphanumerics of the report id, or a fresh random
// one when the report has none.
func shortID(id string) string {
	s := strings.ReplaceAll(slugify(id), "-", "")
	if s == "" {
		s = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if len(s) > shortIDLen {
		s = s[:shortIDLen]
	}
	return s
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))

	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}
