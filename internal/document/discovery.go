package document

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	tixerrors "tixcli/internal/errors"
)

// Snapshot-date filename conventions, in priority order. The path
// prefix form has no day component and resolves to the first of the
// month, which is why it is the lowest-priority fallback.
var (
	reDotDatePrefix = regexp.MustCompile(`^(\d{4})\.(\d{2})\.(\d{2})`)
	reISODate       = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)
	reMonthDir      = regexp.MustCompile(`(^|/)(\d{4})/(\d{2})(/|$)`)
)

// Discovery locates input documents and resolves their snapshot dates.
type Discovery struct {
	logger *slog.Logger
}

// NewDiscovery creates a document discovery instance.
func NewDiscovery(logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{logger: logger}
}

// Discover resolves path (a single document or a directory) into the
// list of processable documents sorted by snapshot date. Documents
// whose format or snapshot date cannot be resolved are skipped and
// returned as per-document errors; a missing path is fatal.
func (d *Discovery) Discover(path string) ([]Document, []error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, []error{tixerrors.NewConfiguration(fmt.Sprintf("input path %s not accessible", path), err)}
	}

	var candidates []string
	if info.IsDir() {
		// Seasons are commonly filed as nested YYYY/MM/ directories, so
		// discovery walks the whole tree.
		walkErr := filepath.WalkDir(path, func(p string, entry os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !entry.IsDir() {
				candidates = append(candidates, p)
			}
			return nil
		})
		if walkErr != nil {
			return nil, []error{tixerrors.NewConfiguration(fmt.Sprintf("failed to read directory %s", path), walkErr)}
		}
	} else {
		candidates = []string{path}
	}

	var docs []Document
	var skipped []error
	for _, candidate := range candidates {
		name := filepath.Base(candidate)
		if strings.HasPrefix(name, "~$") {
			continue
		}

		var kind Kind
		switch strings.ToLower(filepath.Ext(name)) {
		case ".xlsx":
			kind = KindSpreadsheet
		case ".pdf":
			kind = KindPDF
		default:
			continue
		}

		snapshotDate, err := SnapshotDateFromPath(candidate)
		if err != nil {
			perr := tixerrors.NewDateUnresolvable(name, -1, candidate, err)
			d.logger.Warn("skipping document without resolvable snapshot date",
				slog.String("document", name),
				slog.String("reason", err.Error()))
			skipped = append(skipped, perr)
			continue
		}

		docs = append(docs, Document{
			Path:         candidate,
			Name:         name,
			Kind:         kind,
			SnapshotDate: snapshotDate,
		})
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].SnapshotDate.Before(docs[j].SnapshotDate)
	})
	return docs, skipped
}

// SnapshotDateFromPath resolves the snapshot date encoded in a document
// path. Tried in order: a YYYY.MM.DD filename prefix, a YYYY-MM-DD
// substring anywhere in the filename, and a YYYY/MM/ directory prefix.
func SnapshotDateFromPath(path string) (time.Time, error) {
	name := filepath.Base(path)

	if m := reDotDatePrefix.FindStringSubmatch(name); m != nil {
		if t, err := time.Parse("2006.01.02", m[0]); err == nil {
			return t, nil
		}
	}
	if m := reISODate.FindStringSubmatch(name); m != nil {
		if t, err := time.Parse("2006-01-02", m[0]); err == nil {
			return t, nil
		}
	}
	if m := reMonthDir.FindStringSubmatch(filepath.ToSlash(path)); m != nil {
		if t, err := time.Parse("2006-01", m[2]+"-"+m[3]); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("no snapshot date convention matched %q", path)
}
