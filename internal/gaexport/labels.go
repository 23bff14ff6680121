package gaexport

// Labels holds the column and title strings an export uses, per UI language.
// Classification and metadata extraction are driven entirely by these values.
type Labels struct {
	Locale string

	// Column header of day-indexed tables. Several spellings are accepted
	// because exports opened with the wrong code page carry "N¬∞" for "N°".
	DayColumn []string

	ActiveUsers    string
	NewUsers       string
	Engagement     string
	Revenue        string
	NewUsersTitle  string // block title of the first-user acquisition table
	ChannelGroup   string // common prefix of both channel group headers
	FirstUserGroup string
	SessionGroup   string
	CountryID      string
	Country        string
	TrendTitle     string
	Trend30Days    string
	PageTitle      string
	EventName      string
	EventCount     string

	Account   string
	Property  string
	StartDate string
	EndDate   string
}

// ItalianLabels matches the Italian GA4 "Istantanea report" export.
var ItalianLabels = Labels{
	Locale:         "it",
	DayColumn:      []string{"N° giorno", "N¬∞ giorno"},
	ActiveUsers:    "Utenti attivi",
	NewUsers:       "Nuovi utenti",
	Engagement:     "Durata media del coinvolgimento",
	Revenue:        "Entrate totali",
	NewUsersTitle:  "Da dove provengono i nuovi utenti?",
	ChannelGroup:   "Gruppo di canali",
	FirstUserGroup: "Gruppo di canali principale del primo utente",
	SessionGroup:   "Gruppo di canali principale della sessione",
	CountryID:      "ID Paese",
	Country:        "Paese",
	TrendTitle:     "tendenza degli utenti attivi",
	Trend30Days:    "30 giorni",
	PageTitle:      "Titolo pagina",
	EventName:      "Nome evento",
	EventCount:     "Conteggio eventi",
	Account:        "Account",
	Property:       "Proprietà",
	StartDate:      "Data di inizio",
	EndDate:        "Data di fine",
}

// EnglishLabels matches the English GA4 report snapshot export.
var EnglishLabels = Labels{
	Locale:         "en",
	DayColumn:      []string{"Nth day"},
	ActiveUsers:    "Active users",
	NewUsers:       "New users",
	Engagement:     "Average engagement time",
	Revenue:        "Total revenue",
	NewUsersTitle:  "Where do your new users come from?",
	ChannelGroup:   "primary channel group",
	FirstUserGroup: "First user primary channel group",
	SessionGroup:   "Session primary channel group",
	CountryID:      "Country ID",
	Country:        "Country",
	TrendTitle:     "active users trending",
	Trend30Days:    "30 days",
	PageTitle:      "Page title",
	EventName:      "Event name",
	EventCount:     "Event count",
	Account:        "Account",
	Property:       "Property",
	StartDate:      "Start date",
	EndDate:        "End date",
}

// LabelsForLocale returns the label set for a locale code, falling back to Italian.
func LabelsForLocale(locale string) Labels {
	switch locale {
	case EnglishLabels.Locale:
		return EnglishLabels
	default:
		return ItalianLabels
	}
}

// isDateRangeLine reports whether a line restates the export period.
func (l Labels) isDateRangeLine(line string) bool {
	return containsAny(line, l.StartDate, l.EndDate)
}

func (l Labels) hasDayColumn(s string) bool {
	return containsAny(s, l.DayColumn...)
}
