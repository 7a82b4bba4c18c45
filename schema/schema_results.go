package schema

// SubjectResult is the subject-teacher view of one class, subject and term.
type SubjectResult struct {
	Class         Class            `json:"class"`
	Subject       Subject          `json:"subject"`
	Term          Term             `json:"term"`
	Phase         Phase            `json:"phase,omitempty"`
	Manual        bool             `json:"manual_columns"`
	Columns       []ColumnKey      `json:"columns"`
	Thresholds    ThresholdSet     `json:"thresholds"`
	Rows          []SubjectSummary `json:"rows"`
	SortKey       string           `json:"sort_key,omitempty"`
	SortDirection SortDirection    `json:"sort_direction"`
}

// ClassResult is the homeroom view of one class and term across subjects.
type ClassResult struct {
	Class          Class            `json:"class"`
	Term           Term             `json:"term"`
	Subjects       []Subject        `json:"subjects"`
	Rows           []StudentSummary `json:"rows"`
	Ranks          map[string]int   `json:"ranks"`
	FinalThreshold *float64         `json:"final_threshold"`
	SortKey        string           `json:"sort_key,omitempty"`
	SortDirection  SortDirection    `json:"sort_direction"`
	Unavailable    []SubjectIssue   `json:"unavailable,omitempty"`
}

// SubjectIssue names a subject left out of a class view because its source failed.
type SubjectIssue struct {
	Subject Subject `json:"subject"`
	Error   string  `json:"error"`
}

// DistributionResult is the letter-grade histogram of a class and term.
type DistributionResult struct {
	Class    Class                `json:"class"`
	Term     Term                 `json:"term"`
	Graded   int                  `json:"graded"`
	Excluded int                  `json:"excluded"`
	Buckets  []DistributionBucket `json:"buckets"`

	Unavailable []SubjectIssue `json:"unavailable,omitempty"`
}

// TrendResult is a chronological multi-period series.
type TrendResult struct {
	Filter            TrendFilter   `json:"filter"`
	Series            []string      `json:"series"`
	Points            []PeriodPoint `json:"points"`
	NonCanonicalYears []string      `json:"non_canonical_years,omitempty"`
}

// ObjectiveResult is the resolved column set of a subject scope with its effective thresholds.
type ObjectiveResult struct {
	Class      Class               `json:"class"`
	Subject    Subject             `json:"subject"`
	Term       Term                `json:"term"`
	Phase      Phase               `json:"phase,omitempty"`
	Parity     int                 `json:"term_parity"`
	Manual     bool                `json:"manual"`
	Objectives []LearningObjective `json:"objectives"`
	Thresholds ThresholdSet        `json:"thresholds"`
}
