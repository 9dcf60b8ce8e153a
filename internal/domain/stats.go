package domain

// CategoryStats counts templates in one category.
type CategoryStats struct {
	Category Category
	Total    int
	Active   int
}

// TemplateStats aggregates the template catalogue.
type TemplateStats struct {
	Total      int
	Active     int
	Mandatory  int
	ByCategory []CategoryStats
}

// MonthStats counts records created in one calendar month (YYYY-MM).
type MonthStats struct {
	Month    string
	Total    int
	ByStatus map[RecordStatus]int
}

// RecordStats aggregates records by status, overall and per creation month.
type RecordStats struct {
	Total    int
	ByStatus map[RecordStatus]int
	ByMonth  []MonthStats
}

// StatsMonths is how many recent creation months RecordStats covers.
const StatsMonths = 12
