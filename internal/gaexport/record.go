package gaexport

// SectionKind names one logical table of an export.
type SectionKind string

const (
	SectionActiveUsers     SectionKind = "daily_active_users"
	SectionNewUsers        SectionKind = "daily_new_users"
	SectionEngagement      SectionKind = "engagement_duration"
	SectionRevenue         SectionKind = "revenue"
	SectionTrafficNew      SectionKind = "traffic_sources_new"
	SectionTrafficSessions SectionKind = "traffic_sources_session"
	SectionGeography       SectionKind = "geography"
	SectionUserTrends      SectionKind = "user_trends"
	SectionPages           SectionKind = "pages"
	SectionEvents          SectionKind = "events"
)

// Metadata is the export header. Dates use the 2006-01-02 layout; any field
// may be empty when the header line is missing.
type Metadata struct {
	Account   string `json:"account,omitempty" yaml:"account,omitempty"`
	Property  string `json:"property,omitempty" yaml:"property,omitempty"`
	StartDate string `json:"start_date,omitempty" yaml:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty" yaml:"end_date,omitempty"`
}

// DayValue is one point of a day-indexed series.
type DayValue struct {
	Day   int     `json:"day" yaml:"day"`
	Value float64 `json:"value" yaml:"value"`
}

// DaySeries is a day-indexed numeric series in export order.
type DaySeries []DayValue

// Values returns the bare values in series order.
func (s DaySeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.Value
	}
	return out
}

// TrendPoint is one row of the 30/7/1-day active users table.
type TrendPoint struct {
	Day      int `json:"day" yaml:"day"`
	Users30d int `json:"30_days" yaml:"30_days"`
	Users7d  int `json:"7_days" yaml:"7_days"`
	Users1d  int `json:"1_day" yaml:"1_day"`
}

// Record is the typed result of parsing one export. A section missing from
// the export is an empty series, never nil. Records are not modified after
// Parse returns them.
type Record struct {
	Metadata Metadata `json:"metadata" yaml:"metadata"`

	DailyActiveUsers   DaySeries `json:"daily_active_users" yaml:"daily_active_users"`
	DailyNewUsers      DaySeries `json:"daily_new_users" yaml:"daily_new_users"`
	EngagementDuration DaySeries `json:"engagement_duration" yaml:"engagement_duration"`
	Revenue            DaySeries `json:"revenue" yaml:"revenue"`

	TrafficSourcesNew     CategoryTotals `json:"traffic_sources_new" yaml:"traffic_sources_new"`
	TrafficSourcesSession CategoryTotals `json:"traffic_sources_session" yaml:"traffic_sources_session"`
	Geography             CategoryTotals `json:"geography" yaml:"geography"`
	Pages                 CategoryTotals `json:"pages" yaml:"pages"`
	Events                CategoryTotals `json:"events" yaml:"events"`

	UserTrends []TrendPoint `json:"user_trends" yaml:"user_trends"`

	Diagnostics Diagnostics `json:"diagnostics" yaml:"diagnostics"`
}

// NewRecord returns a Record with every series empty.
func NewRecord() *Record {
	return &Record{
		DailyActiveUsers:   DaySeries{},
		DailyNewUsers:      DaySeries{},
		EngagementDuration: DaySeries{},
		Revenue:            DaySeries{},
		UserTrends:         []TrendPoint{},
		Diagnostics:        newDiagnostics(),
	}
}

// IsEmpty reports whether no section produced any data.
func (r *Record) IsEmpty() bool {
	return len(r.DailyActiveUsers) == 0 &&
		len(r.DailyNewUsers) == 0 &&
		len(r.EngagementDuration) == 0 &&
		len(r.Revenue) == 0 &&
		r.TrafficSourcesNew.Len() == 0 &&
		r.TrafficSourcesSession.Len() == 0 &&
		r.Geography.Len() == 0 &&
		r.Pages.Len() == 0 &&
		r.Events.Len() == 0 &&
		len(r.UserTrends) == 0
}

// SkipReason explains why a row was left out of its section.
type SkipReason string

const (
	SkipFieldCount        SkipReason = "field_count"
	SkipInvalidNumber     SkipReason = "invalid_number"
	SkipNegativeDay       SkipReason = "negative_day"
	SkipNegativeValue     SkipReason = "negative_value"
	SkipEmptyLabel        SkipReason = "empty_label"
	SkipLabelTooLong      SkipReason = "label_too_long"
	SkipUnterminatedQuote SkipReason = "unterminated_quote"
)

// SectionStats counts what happened to the rows of one section kind.
type SectionStats struct {
	Blocks  int                `json:"blocks" yaml:"blocks"`
	Rows    int                `json:"rows" yaml:"rows"`
	Skipped map[SkipReason]int `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// SkippedRows returns the number of rejected rows in the section.
func (s SectionStats) SkippedRows() int {
	n := 0
	for _, c := range s.Skipped {
		n += c
	}
	return n
}

// Diagnostics makes the parser's tolerance observable: how many blocks were
// seen, recognized, left empty, and why rows were dropped.
type Diagnostics struct {
	Blocks             int                          `json:"blocks" yaml:"blocks"`
	UnrecognizedBlocks int                          `json:"unrecognized_blocks" yaml:"unrecognized_blocks"`
	EmptySections      int                          `json:"empty_sections" yaml:"empty_sections"`
	Sections           map[SectionKind]SectionStats `json:"sections" yaml:"sections"`
}

func newDiagnostics() Diagnostics {
	return Diagnostics{Sections: make(map[SectionKind]SectionStats)}
}

// SkippedRows returns the number of rejected rows across all sections.
func (d Diagnostics) SkippedRows() int {
	n := 0
	for _, s := range d.Sections {
		n += s.SkippedRows()
	}
	return n
}
