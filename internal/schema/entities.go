package schema

import (
	"time"

	"github.com/shopspring/decimal"
)

// AromaAxisCount is the fixed width of a Product's aroma profile vector
// (spec 3: "7-axis aroma profile (integers 1-5)").
const AromaAxisCount = 7

// AromaAxisNames names the seven fixed aroma axes in profile-index order.
var AromaAxisNames = [AromaAxisCount]string{
	"fruity", "floral", "spicy", "woody", "earthy", "mineral", "herbaceous",
}

// Product is a sellable wine SKU, per spec section 3. Never deleted, only
// archived; upserted by ProductCode on every source load.
type Product struct {
	ProductCode  string
	Label        string
	Family       ProductCategory
	Grape        string
	Sucrosity    string
	Region       string
	UnitPriceEUR decimal.Decimal
	PriceSegment PriceSegment
	PremiumTier  bool
	AromaProfile [AromaAxisCount]int // each axis 1-5
	Popularity   float64             // 0-1
	Active       bool
	Archived     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProductAlias maps a raw, connector-native product label to a canonical
// Product, populated by the alias cache (spec section 5).
type ProductAlias struct {
	RawLabel    string
	ProductCode string
}

// Customer is a canonical, deduplicated commercial contact, per spec
// section 3 and section 4.4 Stage A/B.
type Customer struct {
	CustomerCode     string // comma-joined merged codes when Stage A dedup folds duplicates
	Email            string
	Phone            string
	FirstName        string
	LastName         string
	Address          string
	PostalCode       string
	City             string
	Country          string
	Bounced          bool
	OptedOut         bool
	ContactableOverride *bool // nil unless explicitly overridden; see Contactable()
	MergedFromCodes  bool
	DuplicateCount   int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Contactable derives contactability per spec 3: ¬bounced ∧ ¬opted_out,
// unless explicitly overridden.
func (c Customer) Contactable() bool {
	if c.ContactableOverride != nil {
		return *c.ContactableOverride
	}
	return !c.Bounced && !c.OptedOut
}

// OrderLine is a single normalized sales-line fact, per spec section 3 and
// section 4.4 Stage C. Append-only; natural key is
// (DocRef, CustomerCode, ProductCode, OrderDate).
type OrderLine struct {
	ID            string
	CustomerCode  string
	ProductCode   string
	OrderDate     time.Time
	DocRef        string
	DocType       string
	Quantity      float64 // 75cl-bottle-equivalent, see schema.NormalizedEquivalent
	AmountHT      decimal.Decimal
	AmountTTC     decimal.Decimal
	Margin        decimal.Decimal
	SourceBatchID string
}

// ContactEvent is a single recorded customer touchpoint, per spec section 3
// and section 4.4 Stage D.
type ContactEvent struct {
	ID           string
	CustomerCode string
	OccurredAt   time.Time
	Channel      string
	Outcome      string
}

// FamilyShare is one entry of a MasterProfile's product-family distribution.
type FamilyShare struct {
	Family ProductCategory
	Share  float64 // CA (revenue) share of this family, 0-1
}

// GrapeShare is one entry of a MasterProfile's grape-variety distribution.
type GrapeShare struct {
	Grape string
	Share float64
}

// AromaAffinity is one of a MasterProfile's top-3 aroma axes with a
// confidence derived from the revenue-weighted aroma intensity of the
// customer's purchases, capped at 1, per spec 4.4 Stage E.
type AromaAffinity struct {
	Axis       string
	Confidence float64
}

// MasterProfile is the materialized per-customer view built by Stage E,
// consumed read-only by feature computation (C5) and scenario matching
// (C6).
type MasterProfile struct {
	CustomerCode string

	RecencyDays    int
	Frequency      int
	MonetaryEUR    decimal.Decimal
	RecencyScore   int // 1-4 quartile score
	FrequencyScore int
	MonetaryScore  int
	RFMScore       int // sum of the three quartile scores, 3-12
	Segment        CustomerSegment

	TopFamilies []FamilyShare // top-1/top-2 families by CA share
	TopGrapes   []GrapeShare  // top-1/top-2 grapes by CA share
	TopSucrosity string
	TopPriceBand PriceSegment

	DiversityScore float64 // Herfindahl-complement over family shares, 0-1
	TopAromaAxes   []AromaAffinity

	LastOrderAt  *time.Time
	BuiltAt      time.Time
}

// RecoRun is one execution of the recommendation generator, covering
// either a single customer or a batch, per spec section 3/4.9.
type RecoRun struct {
	RunID            string
	ConfigHash       string
	TotalCustomers   int
	EligibleCustomers int
	ExportedCount    int
	StartedAt        time.Time
	FinishedAt       time.Time
	Duration         time.Duration
	Summary          map[string]interface{} // free-form run diagnostics, JSON column
}

// Explanation is the pure, scenario-specific human-readable justification
// for a RecoItem, produced by the explanation generator (C8).
type Explanation struct {
	Title      string
	Reason     string
	Components []string // 2-4 factual bullets
}

// RecoItem is a single ranked, explained recommendation within a RecoRun.
type RecoItem struct {
	RunID        string
	CustomerCode string
	ProductCode  string
	Scenario     Scenario
	Rank         int
	BaseScore       float64
	AffinityScore   float64
	PopularityScore float64
	ProfitScore     float64
	FinalScore      float64
	Explanation  Explanation
	CreatedAt    time.Time
}

// AuditLog is the gating/compliance lifecycle record for one RecoItem, per
// spec section 3/4.10.
type AuditLog struct {
	AuditID          string
	RunID            string
	CustomerCode     string
	ProductCode      string
	Status           ApprovalStatus
	Actor            string
	ComplianceChecks map[string]bool // e.g. "min_score", "approved_product_family", "customer_contactable"
	Flags            []string
	DecidedAt        *time.Time
	Reason           string
	CreatedAt        time.Time
}

// QualityMetrics is the aggregate audit-quality snapshot for one RecoRun
// batch, per spec section 4.10.
type QualityMetrics struct {
	RunID          string
	Coverage       float64
	Diversity      float64
	AccuracyProxy  float64
	AvgScore       float64
	MedianScore    float64
	DiversityRatio float64
	QualityScore   float64
	QualityLevel   QualityLevel
	ComputedAt     time.Time
}

// OutcomeEvent records what happened to a delivered RecoItem, per spec
// section 3/4.11.
type OutcomeEvent struct {
	ID           string
	RunID        string
	CustomerCode string
	ProductCode  string
	Status       OutcomeStatus
	RevenueEUR   decimal.Decimal
	RecordedAt   time.Time
}

// FeedbackRecord is an explicit customer rating of a RecoItem, per spec
// section 4.11.
type FeedbackRecord struct {
	ID           string
	RunID        string
	CustomerCode string
	ProductCode  string
	Score        int // 1-5
	Sentiment    FeedbackSentiment
	Comment      string
	RecordedAt   time.Time
}

// OutcomeMetrics is a rolling-window aggregation over OutcomeEvent/
// FeedbackRecord, per spec section 4.11.
type OutcomeMetrics struct {
	WindowStart      time.Time
	WindowEnd        time.Time
	Total            int
	AcceptanceRate   float64
	PurchaseRate     float64
	ReturnRate       float64
	AvgSatisfaction  float64
	RevenueImpact    decimal.Decimal
	ROI              float64
}

// TriggerSeverity is a closed severity enum for RetrainingTrigger.
type TriggerSeverity string

const (
	SeverityHigh   TriggerSeverity = "HIGH"
	SeverityMedium TriggerSeverity = "MEDIUM"
)

// RetrainingTrigger is a deterministic detection of a quality/satisfaction
// regression, per spec section 4.11.
type RetrainingTrigger struct {
	Kind       string // PERFORMANCE_DROP | SATISFACTION_DROP | HIGH_RETURN_RATE | LOW_ACCEPTANCE_RATE
	Severity   TriggerSeverity
	RunID      string
	Detail     string
	DetectedAt time.Time
}

// ABTestResult is the computed outcome of an A/B test between two arms,
// per spec section 4.11 and the original Python source's experimentation
// module.
type ABTestResult struct {
	TestID          string
	ArmAConversion  float64
	ArmBConversion  float64
	ArmARevenue     decimal.Decimal
	ArmBRevenue     decimal.Decimal
	Winner          string // "B" when arm B converts strictly better, else "A"
	Confidence      float64
	ArmAOutcomes    int
	ArmBOutcomes    int
}

// IngestionBatch tracks one ingested file/connector sync, supplementing
// the distilled spec with the original Python ingestion service's batch
// bookkeeping (original_source core/ingestion/service.go).
type IngestionBatch struct {
	BatchID     string
	SourceType  string // "customers" | "sales_lines" | "contacts"
	SourceName  string
	ContentHash string
	RowCount    int
	ErrorCount  int
	StartedAt   time.Time
	FinishedAt  *time.Time
}
