package journal

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	ResultOK     = "ok"
	ResultFailed = "failed"

	timeLayout = "2006-01-02 15:04:05"
)

// Entry is one line of the journal: a generation or export run.
type Entry struct {
	Time     string   `json:"time"`
	RunID    string   `json:"run_id"`
	Action   string   `json:"action"`
	Strategy string   `json:"strategy"`
	Firm     string   `json:"firm"`
	Result   string   `json:"result"`
	Error    string   `json:"error,omitempty"`
	Files    []string `json:"files,omitempty"`
}

// Journal appends JSONL entries to one file per day under Dir.
type Journal struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

func New(dir string) *Journal {
	if dir == "" {
		dir = "logs"
	}
	return &Journal{dir: dir, now: time.Now}
}

func (j *Journal) Dir() string { return j.dir }

// NewRunID returns the id tying together the log records of one run.
func NewRunID() string {
	return uuid.NewString()
}

func (j *Journal) dailyFilepath(t time.Time) string {
	return filepath.Join(j.dir, t.Format("2006-01-02")+".jsonl")
}

// Append stamps e with the current time, and a run id when it has none.
func (j *Journal) Append(e Entry) (Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	now := j.now()
	e.Time = now.Format(timeLayout)
	if e.RunID == "" {
		e.RunID = NewRunID()
	}
	p := j.dailyFilepath(now)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return e, err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return e, err
	}
	defer f.Close()
	b, err := json.Marshal(e)
	if err != nil {
		return e, err
	}
	_, err = fmt.Fprintln(f, string(b))
	return e, err
}

// ReadDay returns the entries recorded on the day of t, oldest first.
func (j *Journal) ReadDay(t time.Time) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.dailyFilepath(t))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return out, fmt.Errorf("journal %s: %w", f.Name(), err)
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// CompressOlder gzips day files last modified more than retentionDays ago
// and returns the paths it compressed. Zero or negative keeps everything.
func (j *Journal) CompressOlder(retentionDays int) ([]string, error) {
	if retentionDays <= 0 {
		return nil, nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	cutoff := j.now().AddDate(0, 0, -retentionDays)
	var done []string
	err := filepath.WalkDir(j.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			if p == j.dir && os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || filepath.Ext(p) != ".jsonl" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		// a previous run already compressed it
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err != nil {
			return nil
		}
		_ = os.Remove(p)
		done = append(done, gz)
		return nil
	})
	sort.Strings(done)
	return done, err
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	return out.Close()
}
