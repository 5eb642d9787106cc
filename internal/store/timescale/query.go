package timescale

import "strconv"

// windowRows caps the first stage of the latest/first lookups. Bounding the
// scan to the 1000 newest (or oldest) rows by datetime keeps the query cheap
// while tolerating cumulative sums that are not perfectly monotonic with
// datetime under concurrent writers. A tie cluster wider than the cap can in
// principle hide the true extreme row; that approximation is accepted.
const windowRows = 1000

// latestQuery selects the row with the maximum dollar_cumsum among the
// windowRows most recent rows by datetime.
func latestQuery(table, cols string) string {
	return `WITH time_filtered AS (SELECT * FROM ` + quoteIdent(table) +
		` ORDER BY datetime DESC LIMIT ` + strconv.Itoa(windowRows) + `) SELECT ` + cols +
		` FROM time_filtered ORDER BY dollar_cumsum DESC LIMIT 1`
}

// firstQuery is the mirror image: the minimum dollar_cumsum among the
// windowRows earliest rows.
func firstQuery(table, cols string) string {
	return `WITH time_filtered AS (SELECT * FROM ` + quoteIdent(table) +
		` ORDER BY datetime ASC LIMIT ` + strconv.Itoa(windowRows) + `) SELECT ` + cols +
		` FROM time_filtered ORDER BY dollar_cumsum ASC LIMIT 1`
}

// rangeQuery selects cols over the half-open window [from, to) bound as $1
// and $2, ordered by dollar_cumsum ascending.
func rangeQuery(table, cols string) string {
	return `SELECT ` + cols + ` FROM ` + quoteIdent(table) +
		` WHERE datetime >= $1 AND datetime < $2 ORDER BY dollar_cumsum ASC`
}

// nullIfEmpty maps an empty optional identifier to SQL NULL.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// orEmpty unwraps a nullable text column.
func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
