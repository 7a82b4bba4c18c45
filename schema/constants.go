package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the grade store.
	DatabaseBackend string

	// AssessmentKind distinguishes formative (TP) from summative (UAS) scores.
	AssessmentKind string

	// ColumnKey identifies a grade column such as TP1, TP2, UAS or FINAL.
	ColumnKey string

	// Phase is the curriculum phase derived from a class grade level.
	Phase string

	// SortDirection is the direction of a sortable column.
	SortDirection string

	// TrendGrouping selects what a trend query groups on.
	TrendGrouping string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Assessment kinds.
const (
	KindTP  AssessmentKind = "TP"  // formative, per learning objective
	KindUAS AssessmentKind = "UAS" // end-of-term summative
)

// Fixed column keys. TP columns are built with TPKey.
const (
	UASKey   ColumnKey = "UAS"
	FinalKey ColumnKey = "FINAL"
)

// Curriculum phases.
const (
	PhaseA Phase = "A" // grades 1-2
	PhaseB Phase = "B" // grades 3-4
	PhaseC Phase = "C" // grades 5-6
)

// Term parity values. AnyParity matches objectives scoped to either half.
const (
	AnyParity    = 0
	FirstParity  = 1
	SecondParity = 2
)

// Sort directions.
const (
	SortAscending  SortDirection = "ascending"
	SortDescending SortDirection = "descending"
	SortNone       SortDirection = "none"
)

// Trend groupings.
const (
	TrendByStudent TrendGrouping = "student" // one series per subject
	TrendByClass   TrendGrouping = "class"   // one series per subject, class-wide
	TrendByCohort  TrendGrouping = "cohort"  // one series per class in the cohort
)

// DefaultThreshold is the pass threshold used when no other value applies.
const DefaultThreshold = 75.0

// Grade band labels in fixed order.
const (
	BandA = "A"
	BandB = "B"
	BandC = "C"
	BandD = "D"
	BandE = "E"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidTrendGroupings lists all valid trend groupings.
var ValidTrendGroupings = map[TrendGrouping]struct{}{
	TrendByStudent: {},
	TrendByClass:   {},
	TrendByCohort:  {},
}
