package gormstore

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iaros/crm-reco-platform/internal/schema"
)

// jsonColumn is a generic JSON-backed column for the handful of fields
// (aroma profile vectors, compliance-check maps, free-form summaries)
// that have no natural relational shape. No pack repo needed a generic
// JSON gorm column (the teacher's models are flat relational structs), so
// this is a direct, minimal sql.Scanner/driver.Valuer pair over
// encoding/json rather than an unused third-party JSON-column library.
type jsonColumn[T any] struct {
	Value T
}

func (j jsonColumn[T]) Value() (driver.Value, error) {
	return json.Marshal(j.Value)
}

func (j *jsonColumn[T]) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	bytes, ok := src.([]byte)
	if !ok {
		if s, ok := src.(string); ok {
			bytes = []byte(s)
		} else {
			return errors.New("gormstore: jsonColumn: unsupported scan source")
		}
	}
	return json.Unmarshal(bytes, &j.Value)
}

type productModel struct {
	ProductCode  string `gorm:"primaryKey"`
	Label        string
	Family       string
	Grape        string
	Sucrosity    string
	Region       string
	UnitPriceEUR decimal.Decimal `gorm:"type:numeric"`
	PriceSegment string
	PremiumTier  bool
	AromaProfile jsonColumn[[schema.AromaAxisCount]int] `gorm:"type:jsonb"`
	Popularity   float64
	Active       bool
	Archived     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (productModel) TableName() string { return "products" }

func toProductModel(p schema.Product) productModel {
	return productModel{
		ProductCode:  p.ProductCode,
		Label:        p.Label,
		Family:       string(p.Family),
		Grape:        p.Grape,
		Sucrosity:    p.Sucrosity,
		Region:       p.Region,
		UnitPriceEUR: p.UnitPriceEUR,
		PriceSegment: string(p.PriceSegment),
		PremiumTier:  p.PremiumTier,
		AromaProfile: jsonColumn[[schema.AromaAxisCount]int]{Value: p.AromaProfile},
		Popularity:   p.Popularity,
		Active:       p.Active,
		Archived:     p.Archived,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (m productModel) toSchema() schema.Product {
	return schema.Product{
		ProductCode:  m.ProductCode,
		Label:        m.Label,
		Family:       schema.ProductCategory(m.Family),
		Grape:        m.Grape,
		Sucrosity:    m.Sucrosity,
		Region:       m.Region,
		UnitPriceEUR: m.UnitPriceEUR,
		PriceSegment: schema.PriceSegment(m.PriceSegment),
		PremiumTier:  m.PremiumTier,
		AromaProfile: m.AromaProfile.Value,
		Popularity:   m.Popularity,
		Active:       m.Active,
		Archived:     m.Archived,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type productAliasModel struct {
	RawLabel    string `gorm:"primaryKey"`
	ProductCode string `gorm:"index"`
}

func (productAliasModel) TableName() string { return "product_aliases" }

func toProductAliasModel(a schema.ProductAlias) productAliasModel {
	return productAliasModel{RawLabel: a.RawLabel, ProductCode: a.ProductCode}
}

func (m productAliasModel) toSchema() schema.ProductAlias {
	return schema.ProductAlias{RawLabel: m.RawLabel, ProductCode: m.ProductCode}
}

type customerModel struct {
	CustomerCode        string `gorm:"primaryKey"`
	Email               string `gorm:"index"`
	Phone               string `gorm:"index"`
	FirstName           string
	LastName            string
	Address             string
	PostalCode          string
	City                string
	Country             string
	Bounced             bool
	OptedOut            bool
	ContactableOverride *bool
	MergedFromCodes     bool
	DuplicateCount      int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (customerModel) TableName() string { return "customers" }

func toCustomerModel(c schema.Customer) customerModel {
	return customerModel{
		CustomerCode:        c.CustomerCode,
		Email:               c.Email,
		Phone:               c.Phone,
		FirstName:           c.FirstName,
		LastName:            c.LastName,
		Address:             c.Address,
		PostalCode:          c.PostalCode,
		City:                c.City,
		Country:             c.Country,
		Bounced:             c.Bounced,
		OptedOut:            c.OptedOut,
		ContactableOverride: c.ContactableOverride,
		MergedFromCodes:     c.MergedFromCodes,
		DuplicateCount:      c.DuplicateCount,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

func (m customerModel) toSchema() schema.Customer {
	return schema.Customer{
		CustomerCode:        m.CustomerCode,
		Email:               m.Email,
		Phone:               m.Phone,
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		Address:             m.Address,
		PostalCode:          m.PostalCode,
		City:                m.City,
		Country:             m.Country,
		Bounced:             m.Bounced,
		OptedOut:            m.OptedOut,
		ContactableOverride: m.ContactableOverride,
		MergedFromCodes:     m.MergedFromCodes,
		DuplicateCount:      m.DuplicateCount,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

type orderLineModel struct {
	ID            string `gorm:"primaryKey"`
	CustomerCode  string `gorm:"index;uniqueIndex:idx_order_line_natural_key"`
	ProductCode   string `gorm:"index;uniqueIndex:idx_order_line_natural_key"`
	OrderDate     time.Time `gorm:"uniqueIndex:idx_order_line_natural_key"`
	DocRef        string    `gorm:"uniqueIndex:idx_order_line_natural_key"`
	DocType       string
	Quantity      float64
	AmountHT      decimal.Decimal `gorm:"type:numeric"`
	AmountTTC     decimal.Decimal `gorm:"type:numeric"`
	Margin        decimal.Decimal `gorm:"type:numeric"`
	SourceBatchID string
}

func (orderLineModel) TableName() string { return "order_lines" }

func toOrderLineModel(ol schema.OrderLine) orderLineModel {
	return orderLineModel{
		ID:            ol.ID,
		CustomerCode:  ol.CustomerCode,
		ProductCode:   ol.ProductCode,
		OrderDate:     ol.OrderDate,
		DocRef:        ol.DocRef,
		DocType:       ol.DocType,
		Quantity:      ol.Quantity,
		AmountHT:      ol.AmountHT,
		AmountTTC:     ol.AmountTTC,
		Margin:        ol.Margin,
		SourceBatchID: ol.SourceBatchID,
	}
}

func (m orderLineModel) toSchema() schema.OrderLine {
	return schema.OrderLine{
		ID:            m.ID,
		CustomerCode:  m.CustomerCode,
		ProductCode:   m.ProductCode,
		OrderDate:     m.OrderDate,
		DocRef:        m.DocRef,
		DocType:       m.DocType,
		Quantity:      m.Quantity,
		AmountHT:      m.AmountHT,
		AmountTTC:     m.AmountTTC,
		Margin:        m.Margin,
		SourceBatchID: m.SourceBatchID,
	}
}

type contactEventModel struct {
	ID           string `gorm:"primaryKey"`
	CustomerCode string `gorm:"index"`
	OccurredAt   time.Time
	Channel      string
	Outcome      string
}

func (contactEventModel) TableName() string { return "contact_events" }

func toContactEventModel(ce schema.ContactEvent) contactEventModel {
	return contactEventModel{
		ID:           ce.ID,
		CustomerCode: ce.CustomerCode,
		OccurredAt:   ce.OccurredAt,
		Channel:      ce.Channel,
		Outcome:      ce.Outcome,
	}
}

func (m contactEventModel) toSchema() schema.ContactEvent {
	return schema.ContactEvent{
		ID:           m.ID,
		CustomerCode: m.CustomerCode,
		OccurredAt:   m.OccurredAt,
		Channel:      m.Channel,
		Outcome:      m.Outcome,
	}
}

type masterProfileModel struct {
	CustomerCode string `gorm:"primaryKey"`

	RecencyDays    int
	Frequency      int
	MonetaryEUR    decimal.Decimal `gorm:"type:numeric"`
	RecencyScore   int
	FrequencyScore int
	MonetaryScore  int
	RFMScore       int
	Segment        string

	TopFamilies  jsonColumn[[]schema.FamilyShare] `gorm:"type:jsonb"`
	TopGrapes    jsonColumn[[]schema.GrapeShare]   `gorm:"type:jsonb"`
	TopSucrosity string
	TopPriceBand string

	DiversityScore float64
	TopAromaAxes   jsonColumn[[]schema.AromaAffinity] `gorm:"type:jsonb"`

	LastOrderAt *time.Time
	BuiltAt     time.Time
}

func (masterProfileModel) TableName() string { return "client_master_profiles" }

func toMasterProfileModel(mp schema.MasterProfile) masterProfileModel {
	return masterProfileModel{
		CustomerCode:   mp.CustomerCode,
		RecencyDays:    mp.RecencyDays,
		Frequency:      mp.Frequency,
		MonetaryEUR:    mp.MonetaryEUR,
		RecencyScore:   mp.RecencyScore,
		FrequencyScore: mp.FrequencyScore,
		MonetaryScore:  mp.MonetaryScore,
		RFMScore:       mp.RFMScore,
		Segment:        string(mp.Segment),
		TopFamilies:    jsonColumn[[]schema.FamilyShare]{Value: mp.TopFamilies},
		TopGrapes:      jsonColumn[[]schema.GrapeShare]{Value: mp.TopGrapes},
		TopSucrosity:   mp.TopSucrosity,
		TopPriceBand:   string(mp.TopPriceBand),
		DiversityScore: mp.DiversityScore,
		TopAromaAxes:   jsonColumn[[]schema.AromaAffinity]{Value: mp.TopAromaAxes},
		LastOrderAt:    mp.LastOrderAt,
		BuiltAt:        mp.BuiltAt,
	}
}

func (m masterProfileModel) toSchema() schema.MasterProfile {
	return schema.MasterProfile{
		CustomerCode:   m.CustomerCode,
		RecencyDays:    m.RecencyDays,
		Frequency:      m.Frequency,
		MonetaryEUR:    m.MonetaryEUR,
		RecencyScore:   m.RecencyScore,
		FrequencyScore: m.FrequencyScore,
		MonetaryScore:  m.MonetaryScore,
		RFMScore:       m.RFMScore,
		Segment:        schema.CustomerSegment(m.Segment),
		TopFamilies:    m.TopFamilies.Value,
		TopGrapes:      m.TopGrapes.Value,
		TopSucrosity:   m.TopSucrosity,
		TopPriceBand:   schema.PriceSegment(m.TopPriceBand),
		DiversityScore: m.DiversityScore,
		TopAromaAxes:   m.TopAromaAxes.Value,
		LastOrderAt:    m.LastOrderAt,
		BuiltAt:        m.BuiltAt,
	}
}

type recoRunModel struct {
	RunID             string `gorm:"primaryKey"`
	ConfigHash        string
	TotalCustomers    int
	EligibleCustomers int
	ExportedCount     int
	StartedAt         time.Time
	FinishedAt        time.Time
	Duration          time.Duration
	Summary           jsonColumn[map[string]interface{}] `gorm:"type:jsonb"`
}

func (recoRunModel) TableName() string { return "reco_runs" }

func toRecoRunModel(r schema.RecoRun) recoRunModel {
	return recoRunModel{
		RunID:             r.RunID,
		ConfigHash:        r.ConfigHash,
		TotalCustomers:    r.TotalCustomers,
		EligibleCustomers: r.EligibleCustomers,
		ExportedCount:     r.ExportedCount,
		StartedAt:         r.StartedAt,
		FinishedAt:        r.FinishedAt,
		Duration:          r.Duration,
		Summary:           jsonColumn[map[string]interface{}]{Value: r.Summary},
	}
}

func (m recoRunModel) toSchema() schema.RecoRun {
	return schema.RecoRun{
		RunID:             m.RunID,
		ConfigHash:        m.ConfigHash,
		TotalCustomers:    m.TotalCustomers,
		EligibleCustomers: m.EligibleCustomers,
		ExportedCount:     m.ExportedCount,
		StartedAt:         m.StartedAt,
		FinishedAt:        m.FinishedAt,
		Duration:          m.Duration,
		Summary:           m.Summary.Value,
	}
}

type recoItemModel struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	RunID           string `gorm:"index"`
	CustomerCode    string `gorm:"index"`
	ProductCode     string
	Scenario        string
	Rank            int
	BaseScore       float64
	AffinityScore   float64
	PopularityScore float64
	ProfitScore     float64
	FinalScore      float64
	ExplanationTitle      string
	ExplanationReason     string
	ExplanationComponents jsonColumn[[]string] `gorm:"type:jsonb"`
	CreatedAt       time.Time
}

func (recoItemModel) TableName() string { return "reco_items" }

func toRecoItemModel(item schema.RecoItem) recoItemModel {
	return recoItemModel{
		RunID:                 item.RunID,
		CustomerCode:          item.CustomerCode,
		ProductCode:           item.ProductCode,
		Scenario:              string(item.Scenario),
		Rank:                  item.Rank,
		BaseScore:             item.BaseScore,
		AffinityScore:         item.AffinityScore,
		PopularityScore:       item.PopularityScore,
		ProfitScore:           item.ProfitScore,
		FinalScore:            item.FinalScore,
		ExplanationTitle:      item.Explanation.Title,
		ExplanationReason:     item.Explanation.Reason,
		ExplanationComponents: jsonColumn[[]string]{Value: item.Explanation.Components},
		CreatedAt:             item.CreatedAt,
	}
}

func (m recoItemModel) toSchema() schema.RecoItem {
	return schema.RecoItem{
		RunID:           m.RunID,
		CustomerCode:    m.CustomerCode,
		ProductCode:     m.ProductCode,
		Scenario:        schema.Scenario(m.Scenario),
		Rank:            m.Rank,
		BaseScore:       m.BaseScore,
		AffinityScore:   m.AffinityScore,
		PopularityScore: m.PopularityScore,
		ProfitScore:     m.ProfitScore,
		FinalScore:      m.FinalScore,
		Explanation: schema.Explanation{
			Title:      m.ExplanationTitle,
			Reason:     m.ExplanationReason,
			Components: m.ExplanationComponents.Value,
		},
		CreatedAt: m.CreatedAt,
	}
}

type auditLogModel struct {
	AuditID          string `gorm:"primaryKey"`
	RunID            string `gorm:"index"`
	CustomerCode     string `gorm:"index"`
	ProductCode      string
	Status           string
	Actor            string
	ComplianceChecks jsonColumn[map[string]bool] `gorm:"type:jsonb"`
	Flags            jsonColumn[[]string]        `gorm:"type:jsonb"`
	DecidedAt        *time.Time
	Reason           string
	CreatedAt        time.Time
}

func (auditLogModel) TableName() string { return "audit_log" }

func toAuditLogModel(a schema.AuditLog) auditLogModel {
	return auditLogModel{
		AuditID:          a.AuditID,
		RunID:            a.RunID,
		CustomerCode:     a.CustomerCode,
		ProductCode:      a.ProductCode,
		Status:           string(a.Status),
		Actor:            a.Actor,
		ComplianceChecks: jsonColumn[map[string]bool]{Value: a.ComplianceChecks},
		Flags:            jsonColumn[[]string]{Value: a.Flags},
		DecidedAt:        a.DecidedAt,
		Reason:           a.Reason,
		CreatedAt:        a.CreatedAt,
	}
}

func (m auditLogModel) toSchema() schema.AuditLog {
	return schema.AuditLog{
		AuditID:          m.AuditID,
		RunID:            m.RunID,
		CustomerCode:     m.CustomerCode,
		ProductCode:      m.ProductCode,
		Status:           schema.ApprovalStatus(m.Status),
		Actor:            m.Actor,
		ComplianceChecks: m.ComplianceChecks.Value,
		Flags:            m.Flags.Value,
		DecidedAt:        m.DecidedAt,
		Reason:           m.Reason,
		CreatedAt:        m.CreatedAt,
	}
}

type outcomeEventModel struct {
	ID           string `gorm:"primaryKey"`
	RunID        string `gorm:"index"`
	CustomerCode string `gorm:"index"`
	ProductCode  string
	Status       string
	RevenueEUR   decimal.Decimal `gorm:"type:numeric"`
	RecordedAt   time.Time
}

func (outcomeEventModel) TableName() string { return "outcome_events" }

func toOutcomeEventModel(o schema.OutcomeEvent) outcomeEventModel {
	return outcomeEventModel{
		ID:           o.ID,
		RunID:        o.RunID,
		CustomerCode: o.CustomerCode,
		ProductCode:  o.ProductCode,
		Status:       string(o.Status),
		RevenueEUR:   o.RevenueEUR,
		RecordedAt:   o.RecordedAt,
	}
}

func (m outcomeEventModel) toSchema() schema.OutcomeEvent {
	return schema.OutcomeEvent{
		ID:           m.ID,
		RunID:        m.RunID,
		CustomerCode: m.CustomerCode,
		ProductCode:  m.ProductCode,
		Status:       schema.OutcomeStatus(m.Status),
		RevenueEUR:   m.RevenueEUR,
		RecordedAt:   m.RecordedAt,
	}
}

type feedbackRecordModel struct {
	ID           string `gorm:"primaryKey"`
	RunID        string `gorm:"index"`
	CustomerCode string `gorm:"index"`
	ProductCode  string
	Score        int
	Sentiment    string
	Comment      string
	RecordedAt   time.Time
}

func (feedbackRecordModel) TableName() string { return "feedback_records" }

func toFeedbackRecordModel(f schema.FeedbackRecord) feedbackRecordModel {
	return feedbackRecordModel{
		ID:           f.ID,
		RunID:        f.RunID,
		CustomerCode: f.CustomerCode,
		ProductCode:  f.ProductCode,
		Score:        f.Score,
		Sentiment:    string(f.Sentiment),
		Comment:      f.Comment,
		RecordedAt:   f.RecordedAt,
	}
}

func (m feedbackRecordModel) toSchema() schema.FeedbackRecord {
	return schema.FeedbackRecord{
		ID:           m.ID,
		RunID:        m.RunID,
		CustomerCode: m.CustomerCode,
		ProductCode:  m.ProductCode,
		Score:        m.Score,
		Sentiment:    schema.FeedbackSentiment(m.Sentiment),
		Comment:      m.Comment,
		RecordedAt:   m.RecordedAt,
	}
}

type abTestResultModel struct {
	TestID         string `gorm:"primaryKey"`
	ArmAConversion float64
	ArmBConversion float64
	ArmARevenue    decimal.Decimal `gorm:"type:numeric"`
	ArmBRevenue    decimal.Decimal `gorm:"type:numeric"`
	Winner         string
	Confidence     float64
	ArmAOutcomes   int
	ArmBOutcomes   int
}

func (abTestResultModel) TableName() string { return "ab_test_results" }

func toABTestResultModel(r schema.ABTestResult) abTestResultModel {
	return abTestResultModel{
		TestID:         r.TestID,
		ArmAConversion: r.ArmAConversion,
		ArmBConversion: r.ArmBConversion,
		ArmARevenue:    r.ArmARevenue,
		ArmBRevenue:    r.ArmBRevenue,
		Winner:         r.Winner,
		Confidence:     r.Confidence,
		ArmAOutcomes:   r.ArmAOutcomes,
		ArmBOutcomes:   r.ArmBOutcomes,
	}
}

type ingestionBatchModel struct {
	BatchID     string `gorm:"primaryKey"`
	SourceType  string
	SourceName  string
	ContentHash string
	RowCount    int
	ErrorCount  int
	StartedAt   time.Time
	FinishedAt  *time.Time
}

func (ingestionBatchModel) TableName() string { return "ingestion_batches" }

func toIngestionBatchModel(b schema.IngestionBatch) ingestionBatchModel {
	return ingestionBatchModel{
		BatchID:     b.BatchID,
		SourceType:  b.SourceType,
		SourceName:  b.SourceName,
		ContentHash: b.ContentHash,
		RowCount:    b.RowCount,
		ErrorCount:  b.ErrorCount,
		StartedAt:   b.StartedAt,
		FinishedAt:  b.FinishedAt,
	}
}

type rawRowModel struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	BatchID  string `gorm:"uniqueIndex:idx_raw_row_dedup"`
	FileType string `gorm:"uniqueIndex:idx_raw_row_dedup"`
	RowHash  string `gorm:"uniqueIndex:idx_raw_row_dedup"`
	Row      jsonColumn[map[string]string] `gorm:"type:jsonb"`
}

func (rawRowModel) TableName() string { return "raw_rows" }

type ingestionErrorModel struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	BatchID  string `gorm:"index"`
	FileType string
	RowNum   int
	Code     string
	Message  string
}

func (ingestionErrorModel) TableName() string { return "ingestion_errors" }
