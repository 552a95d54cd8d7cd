package ingestion

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
	"unicode/utf8"

	"github.com/iaros/crm-reco-platform/internal/logging"
	"github.com/iaros/crm-reco-platform/internal/pipelineerr"
	"github.com/iaros/crm-reco-platform/internal/schema"
	"github.com/iaros/crm-reco-platform/internal/store"
)

// ReferenceSets carries the cross-batch dependency data spec.md 4.3 item 4
// needs: sales_lines/contacts validate against customers already ingested,
// and sales_lines validate product_label_norm against the alias table.
// Both are optional; a nil set skips the corresponding check.
type ReferenceSets struct {
	ValidCustomerCodes map[string]bool
	ValidAliases       map[string]bool
}

// Ingest runs the full per-file pipeline of spec.md 4.3: read, normalize,
// validate row-by-row, cross-batch check, idempotent staging load, report.
// encoding/csv (stdlib) is used for reading — no third-party CSV library
// appears anywhere in the reference pack, so CSV reading stays on the
// standard library (see DESIGN.md).
func Ingest(ctx context.Context, st store.RawStagingStore, fileType FileType, filePath, batchID string, refs *ReferenceSets, logger *logging.Logger) (IngestionReport, error) {
	report := IngestionReport{BatchID: batchID, FileType: fileType}

	batch := schema.IngestionBatch{
		BatchID:    batchID,
		SourceType: string(fileType),
		SourceName: filePath,
		StartedAt:  time.Now(),
	}
	if err := st.StartBatch(ctx, batch); err != nil {
		return report, pipelineerr.Wrap(pipelineerr.KindInternal, "Ingest", "failed to start batch", err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		if logger != nil {
			logger.Warn("ingestion file not found")
		}
		_ = st.FinishBatch(ctx, batchID, 0, 0, time.Now())
		return report, pipelineerr.Wrap(pipelineerr.KindFileNotFound, "Ingest", "input file not found", err)
	}
	defer f.Close()

	rows, header, err := readCSV(f)
	if err != nil {
		_ = st.FinishBatch(ctx, batchID, 0, 0, time.Now())
		return report, pipelineerr.Wrap(pipelineerr.KindFileEncoding, "Ingest", "failed to decode file as UTF-8 CSV", err)
	}
	_ = header

	seenCustomerCodes := make(map[string]bool)

	for i, row := range rows {
		report.TotalRows++
		rowNum := i + 1

		var rowErr *RowError
		switch fileType {
		case FileCustomers:
			rowErr = validateCustomerRow(row, rowNum, seenCustomerCodes)
		case FileSalesLines:
			rowErr = validateSalesLineRow(row, rowNum, refs)
		case FileContacts:
			rowErr = validateContactRow(row, rowNum, refs)
		}

		if rowErr != nil {
			report.ErrorRows++
			report.Errors = append(report.Errors, *rowErr)
			_ = st.InsertIngestionError(ctx, batchID, string(fileType), rowNum, rowErr.Code, rowErr.Message)
			continue
		}

		hash := contentHash(row)
		if _, err := st.UpsertRawRow(ctx, batchID, string(fileType), hash, row); err != nil {
			report.ErrorRows++
			report.Errors = append(report.Errors, RowError{RowNum: rowNum, Code: ErrValidation, Message: err.Error(), Row: row})
			continue
		}
		report.ValidRows++
	}

	if err := st.FinishBatch(ctx, batchID, report.TotalRows, report.ErrorRows, time.Now()); err != nil {
		return report, pipelineerr.Wrap(pipelineerr.KindInternal, "Ingest", "failed to finish batch", err)
	}

	if logger != nil {
		logger.StageTiming("ingest:"+string(fileType), 0, report.TotalRows)
	}
	return report, nil
}

// readCSV reads a UTF-8 CSV with a header row, returning each data row as a
// map keyed by the normalized header names; field values are kept exactly
// as read. Rejects non-UTF-8 content, per spec.md 4.3 item 1.
func readCSV(r io.Reader) ([]map[string]string, []string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	if !utf8.Valid(raw) {
		return nil, nil, fmt.Errorf("file is not valid UTF-8")
	}

	reader := csv.NewReader(bytes.NewReader(raw))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil, nil
		}
		return nil, nil, err
	}
	for i, h := range header {
		header[i] = normalizeText(h)
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		row := make(map[string]string, len(header))
		for i, field := range record {
			if i < len(header) {
				row[header[i]] = field
			}
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

// contentHash is the SHA-256 hex digest over the row's sorted-key JSON
// encoding, per spec.md 4.3 item 5. encoding/json marshals map[string]string
// keys in sorted order, giving a stable hash across re-runs.
func contentHash(row map[string]string) string {
	b, _ := json.Marshal(row)
	sum := sha256.Sum256(b)
	return fmt.Sprintf("%x", sum)
}
