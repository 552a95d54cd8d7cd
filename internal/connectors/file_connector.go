package connectors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/iaros/crm-reco-platform/internal/logging"
)

// FileConnector reads the most recent file matching a configured glob per
// source kind and normalizes column names (lower-case, underscore,
// diacritic-strip), per spec.md 4.2.
type FileConnector struct {
	statusMachine

	Globs  map[SourceKind]string // e.g. {customers: "./data/customers_*.csv"}
	logger *logging.Logger
}

// NewFileConnector constructs a FileConnector with no globs configured yet;
// call ValidateConfig before Sync.
func NewFileConnector(logger *logging.Logger) *FileConnector {
	return &FileConnector{statusMachine: newStatusMachine(), Globs: map[SourceKind]string{}, logger: logger}
}

func (f *FileConnector) Kind() string { return "file_export" }

func (f *FileConnector) RequiredConfigKeys() []string {
	return []string{"customers_glob", "sales_lines_glob", "contacts_glob"}
}

func (f *FileConnector) ValidateConfig(cfg map[string]string) error {
	for _, key := range f.RequiredConfigKeys() {
		if _, ok := cfg[key]; !ok {
			return fmt.Errorf("file connector: missing config key %q", key)
		}
	}
	f.Globs = map[SourceKind]string{
		SourceCustomers:  cfg["customers_glob"],
		SourceSalesLines: cfg["sales_lines_glob"],
		SourceContactHistory: cfg["contacts_glob"],
	}
	f.markHealthy()
	return nil
}

func (f *FileConnector) TestConnection(_ context.Context) error {
	for kind, glob := range f.Globs {
		if glob == "" {
			continue
		}
		matches, err := filepath.Glob(glob)
		if err != nil {
			return fmt.Errorf("file connector: bad glob for %s: %w", kind, err)
		}
		if len(matches) == 0 {
			return fmt.Errorf("file connector: no files matching %s for %s", glob, kind)
		}
	}
	return nil
}

// mostRecentFile returns the most recently modified file matching glob.
// Files are ordered by modification time, newest first; a pair in which
// either file cannot be stat'ed is ordered by name instead.
func mostRecentFile(glob string) (string, error) {
	matches, err := filepath.Glob(glob)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("no files matching %s", glob)
	}
	sort.Slice(matches, func(i, j int) bool {
		si, _ := os.Stat(matches[i])
		sj, _ := os.Stat(matches[j])
		if si == nil || sj == nil {
			return matches[i] < matches[j]
		}
		return si.ModTime().After(sj.ModTime())
	})
	return matches[0], nil
}

// normalizeColumn lower-cases, replaces spaces with underscores, and
// strips diacritics from a raw CSV header field.
func normalizeColumn(col string) string {
	col = strings.ToLower(strings.TrimSpace(col))
	col = strings.ReplaceAll(col, " ", "_")
	var b strings.Builder
	for _, r := range col {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			if folded := stripDiacritic(r); folded != 0 {
				b.WriteRune(folded)
			}
		}
	}
	return b.String()
}

func stripDiacritic(r rune) rune {
	replacements := map[rune]rune{
		'à': 'a', 'á': 'a', 'â': 'a', 'ä': 'a',
		'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e',
		'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
		'ò': 'o', 'ó': 'o', 'ô': 'o', 'ö': 'o',
		'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u',
		'ç': 'c', 'ñ': 'n',
	}
	if rep, ok := replacements[r]; ok {
		return rep
	}
	if unicode.IsLetter(r) {
		return 0
	}
	return 0
}

// Extract reads the most-recent file per configured glob. Only customers,
// sales_lines, and contact_history are recognized per spec.md 4.3's
// FileType set.
func (f *FileConnector) Extract(_ context.Context, _ *time.Time) (map[SourceKind][]RawRecord, error) {
	f.markSyncing()
	out := make(map[SourceKind][]RawRecord)
	for kind, glob := range f.Globs {
		if glob == "" {
			continue
		}
		path, err := mostRecentFile(glob)
		if err != nil {
			f.markError()
			return nil, fmt.Errorf("file connector extract %s: %w", kind, err)
		}
		out[kind] = []RawRecord{{"__source_path": path}}
	}
	return out, nil
}

// Transform is a pass-through at the connector layer; column normalization
// and typed validation happen in the ingestion package (C3), which reads
// the file path left in "__source_path" directly.
func (f *FileConnector) Transform(_ context.Context, raw map[SourceKind][]RawRecord) (map[string][]CanonicalRecord, error) {
	out := make(map[string][]CanonicalRecord)
	for kind, records := range raw {
		var canon []CanonicalRecord
		for _, r := range records {
			canon = append(canon, CanonicalRecord(r))
		}
		out[string(kind)] = canon
	}
	return out, nil
}

func (f *FileConnector) Load(_ context.Context, canonical map[string][]CanonicalRecord) (map[string]int, error) {
	counts := make(map[string]int)
	for table, records := range canonical {
		counts[table] = len(records)
	}
	f.markHealthy()
	return counts, nil
}

func (f *FileConnector) Sync(ctx context.Context, lastSync *time.Time) (SyncResult, error) {
	result := runSync(ctx, f, lastSync)
	if f.logger != nil {
		f.logger.StageTiming("connector_sync:"+f.Kind(), result.Duration, sumCounts(result.RecordCounts))
	}
	return result, nil
}

func sumCounts(counts map[string]int) int {
	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}
