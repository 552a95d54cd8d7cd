package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/iaros/crm-reco-platform/internal/logging"
	"github.com/iaros/crm-reco-platform/internal/pipelineerr"
)

// ERPConnector pulls raw records from a remote ERP/PoS RPC endpoint,
// supplementing spec.md from the original source's Odoo-like connector
// (original_source/connectors/odoo_connector.go). Its RPC path is wrapped
// in a circuit breaker, grounded on
// common/libraries/go/iaros-core/client.go's HTTPClient.
type ERPConnector struct {
	statusMachine

	BaseURL   string
	APIKey    string
	client    *resty.Client
	breaker   *gobreaker.CircuitBreaker
	logger    *logging.Logger
}

// NewERPConnector constructs an ERPConnector. ValidateConfig must be
// called before use.
func NewERPConnector(logger *logging.Logger) *ERPConnector {
	client := resty.New().SetTimeout(30 * time.Second)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "erp-connector",
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 2
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger != nil {
				logger.Info("connector circuit breaker state changed",
					zap.String("connector", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			}
		},
	})

	return &ERPConnector{statusMachine: newStatusMachine(), client: client, breaker: breaker, logger: logger}
}

func (e *ERPConnector) Kind() string { return "erp_pos" }

func (e *ERPConnector) RequiredConfigKeys() []string {
	return []string{"base_url", "api_key"}
}

func (e *ERPConnector) ValidateConfig(cfg map[string]string) error {
	baseURL, ok := cfg["base_url"]
	if !ok || baseURL == "" {
		return fmt.Errorf("erp connector: missing base_url")
	}
	apiKey, ok := cfg["api_key"]
	if !ok || apiKey == "" {
		return fmt.Errorf("erp connector: missing api_key")
	}
	e.BaseURL = baseURL
	e.APIKey = apiKey
	e.markHealthy()
	return nil
}

func (e *ERPConnector) TestConnection(ctx context.Context) error {
	_, err := e.call(ctx, "/health")
	return err
}

// call performs a breaker-guarded GET against the ERP endpoint, surfacing
// an open breaker or transport failure as a CONNECTOR_UNREACHABLE error,
// never a panic, per spec.md section 7.
func (e *ERPConnector) call(ctx context.Context, path string) ([]byte, error) {
	result, err := e.breaker.Execute(func() (interface{}, error) {
		resp, err := e.client.R().
			SetContext(ctx).
			SetHeader("Authorization", "Bearer "+e.APIKey).
			Get(e.BaseURL + path)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("erp connector: status %d", resp.StatusCode())
		}
		return resp.Body(), nil
	})
	if err != nil {
		return nil, pipelineerr.Wrap(pipelineerr.KindConnectorUnreachable, "ERPConnector.call", "erp endpoint unreachable", err).AsRetryable()
	}
	return result.([]byte), nil
}

func (e *ERPConnector) Extract(ctx context.Context, lastSync *time.Time) (map[SourceKind][]RawRecord, error) {
	e.markSyncing()
	path := "/export/sales_lines"
	if lastSync != nil {
		path += "?last_modified_gt=" + lastSync.Format(time.RFC3339)
	}
	body, err := e.call(ctx, path)
	if err != nil {
		e.markError()
		return nil, err
	}

	var rows []map[string]string
	if err := json.Unmarshal(body, &rows); err != nil {
		e.markError()
		return nil, pipelineerr.Wrap(pipelineerr.KindFileEncoding, "ERPConnector.Extract", "malformed erp payload", err)
	}

	out := map[SourceKind][]RawRecord{}
	for _, r := range rows {
		out[SourceSalesLines] = append(out[SourceSalesLines], RawRecord(r))
	}
	return out, nil
}

func (e *ERPConnector) Transform(_ context.Context, raw map[SourceKind][]RawRecord) (map[string][]CanonicalRecord, error) {
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

func (e *ERPConnector) Load(_ context.Context, canonical map[string][]CanonicalRecord) (map[string]int, error) {
	counts := make(map[string]int)
	for table, records := range canonical {
		counts[table] = len(records)
	}
	e.markHealthy()
	return counts, nil
}

// Sync runs extract->transform->load and, on success, sets the next
// incremental cursor to the wall-clock time at which the sync finished.
// The timestamps of the extracted records are not inspected.
func (e *ERPConnector) Sync(ctx context.Context, lastSync *time.Time) (SyncResult, error) {
	result := runSync(ctx, e, lastSync)
	if result.Success {
		now := time.Now()
		result.NextCursor = &now
	}
	if e.logger != nil {
		e.logger.StageTiming("connector_sync:"+e.Kind(), result.Duration, sumCounts(result.RecordCounts))
	}
	return result, nil
}
