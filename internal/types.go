package internal

type ColumnType string

const (
	ColumnText   ColumnType = "text"
	ColumnNumber ColumnType = "number"
	ColumnPrice  ColumnType = "price"
	ColumnSKU    ColumnType = "sku"
	ColumnIgnore ColumnType = "ignore"
)

// ColumnDefinition is the visual builder's unit: one whitespace-delimited
// column of the supplier's item table, left to right.
type ColumnDefinition struct {
	ID    string     `json:"id"`
	Type  ColumnType `json:"columnType"`
	Label string     `json:"label"`
}

// Field mapping keys. Values are 1-based capture group indices.
const (
	FieldQuantity    = "quantity"
	FieldDescription = "description"
	FieldUnitPrice   = "unitPrice"
	FieldSKU         = "sku"
	FieldLineTotal   = "lineTotal"
)

type LineMode string

const (
	// LineModeVisual: the column list is the source of truth, the pattern is
	// recompiled from it on every resolve.
	LineModeVisual LineMode = "visual"
	// LineModeExpert: the pattern and mapping are hand-written and the column
	// list is ignored.
	LineModeExpert LineMode = "expert"
)

type HeaderConfig struct {
	OrderNumberPattern string `json:"orderNumberPattern,omitempty"`
	DatePattern        string `json:"datePattern,omitempty"`
	TotalPattern       string `json:"totalPattern,omitempty"`
}

// LineConfig holds everything needed to locate and parse one supplier's
// item table.
type LineConfig struct {
	TableStartMarker string             `json:"tableStartMarker,omitempty"`
	TableEndMarker   string             `json:"tableEndMarker,omitempty"`
	Mode             LineMode           `json:"mode"`
	Columns          []ColumnDefinition `json:"columns,omitempty"`
	LineItemPattern  string             `json:"lineItemPattern,omitempty"`
	FieldMapping     map[string]int     `json:"fieldMapping,omitempty"`
}

// Template is the per-supplier parsing configuration. It is plain data: one
// fixed pipeline consumes it, there is no per-supplier code.
type Template struct {
	ID                int          `json:"id"`
	Name              string       `json:"name"`
	Active            bool         `json:"active"`
	SupplierID        string       `json:"supplierId,omitempty"`
	DetectionKeywords []string     `json:"detectionKeywords,omitempty"`
	Header            HeaderConfig `json:"header"`
	Lines             LineConfig   `json:"lines"`
}

type LineItem struct {
	LineNo      int      `json:"lineNo"`
	RawLine     string   `json:"rawLine"`
	Description string   `json:"description"`
	SKU         *string  `json:"sku,omitempty"`
	Quantity    *float64 `json:"quantity,omitempty"`
	UnitPrice   *float64 `json:"unitPrice,omitempty"`
	LineTotal   *float64 `json:"lineTotal,omitempty"`
}

// ExtractionResult aggregates whatever could be pulled from one document.
// Header fields and items are independent: FieldErrors records per-field
// failures without blanking the rest.
type ExtractionResult struct {
	OrderNumber *string           `json:"orderNumber,omitempty"`
	Date        *string           `json:"date,omitempty"`
	Total       *float64          `json:"total,omitempty"`
	Items       []LineItem        `json:"items"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

const (
	DiagNoCandidateLine = "no_candidate_line"
	DiagPatternError    = "pattern_error"
	DiagEvaluated       = "evaluated"
)

type DiagnosticReport struct {
	Status         string   `json:"status"`
	Detail         string   `json:"detail,omitempty"`
	CandidateLine  string   `json:"candidateLine,omitempty"`
	Matched        bool     `json:"matched"`
	CapturedGroups []string `json:"capturedGroups,omitempty"`
}

type MatchStatus string

type MatchReason string

const (
	MatchOK       MatchStatus = "OK"
	MatchReview   MatchStatus = "REVIEW"
	MatchNotFound MatchStatus = "NOT_FOUND"

	ReasonSKU   MatchReason = "SKU"
	ReasonName  MatchReason = "NAME"
	ReasonFuzzy MatchReason = "FUZZY"
	ReasonNone  MatchReason = "NONE"
)

type ProductCodes struct {
	SKU          *string `json:"sku,omitempty"`
	Barcode      *string `json:"barcode,omitempty"`
	Manufacturer *string `json:"manufacturer,omitempty"`
}

// ProductRecord is one row of the dashboard's product catalog, synced locally
// so extracted lines can be matched offline.
type ProductRecord struct {
	ID         int
	Name       string
	Unit       *string
	SupplierID *string
	SalePrice  *float64
	Codes      ProductCodes
	AltCodes   []string
	UpdatedAt  *string
	RawJSON    string
}

type MatchCandidate struct {
	ID    int     `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type MatchProduct struct {
	ID    *int         `json:"id"`
	Name  *string      `json:"name"`
	Unit  *string      `json:"unit"`
	Codes ProductCodes `json:"codes"`
}

type MatchResult struct {
	Status     MatchStatus      `json:"status"`
	Confidence float64          `json:"confidence"`
	Reason     MatchReason      `json:"reason"`
	Product    *MatchProduct    `json:"product"`
	Candidates []MatchCandidate `json:"candidates"`
}

type DocumentRow struct {
	ID         int
	Source     string
	ExternalID string
	Subject    string
	Sender     string
	ReceivedAt string
	Hash       string
	Status     string
	RawRef     string
}

type FetchedMailMessage struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	Raw        []byte
}

type PurchaseRow struct {
	ID          int
	DocumentID  int
	TemplateID  *int
	OrderNumber *string
	OrderDate   *string
	Total       *float64
}

type PurchaseExportRow struct {
	LineNo          int
	RawLine         string
	Description     string
	SKU             *string
	Quantity        *float64
	UnitPrice       *float64
	LineTotal       *float64
	MatchStatus     string
	Confidence      float64
	MatchReason     string
	ProductID       *int
	ProductName     *string
	ProductUnit     *string
	ProductSKU      *string
	Candidate2Name  *string
	Candidate2Score *float64
}
