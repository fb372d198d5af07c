package db

import (
	"context"
	"time"
)

// Room of a messenger that is waiting for reports on streams going live.
type Room struct {
	// ID of a room in a messenger-specific format.
	ID string
}

// RoomsAll yields all the rooms from the DB.
func RoomsAll(c context.Context) ([]Room, error) {
	db := FromContext(c)

	ids := make([]string, 0)
	err := db.SelectContext(c, &ids, `SELECT [room_id] FROM [rooms]`)
	if err != nil {
		return nil, err
	}

	rooms := make([]Room, len(ids))
	for i := range ids {
		rooms[i] = Room{ID: ids[i]}
	}

	return rooms, err
}

// Report is a record of a successful went-live announcement for a stream.
type Report struct {
	// URI identifies the stream the report is about.
	URI string
	// ReportedAt is when the announcement was made.
	ReportedAt time.Time
}

// RawReport is a Report with an unparsed timestamp. Used internally to retrieve rows from the DB.
//
// Not meant to be used by the client code.
type RawReport struct {
	URI        string `db:"uri"`
	ReportedAt string `db:"reported_at"`
}

// Cook converts a RawReport into a Report.
//
// Returns error if it fails to parse time.
func (r *RawReport) Cook() (Report, error) {
	reportedAt, err := time.Parse(time.RFC3339, r.ReportedAt)
	if err != nil {
		return Report{}, err
	}

	actual := Report{
		URI:        r.URI,
		ReportedAt: reportedAt,
	}

	return actual, nil
}

// ReportsAll yields all reports from the DB.
func ReportsAll(c context.Context) ([]Report, error) {
	db := FromContext(c)

	rawReports := make([]RawReport, 0)
	err := db.SelectContext(
		c,
		&rawReports,
		`SELECT [uri], [reported_at] FROM [reports]`,
	)
	if err != nil {
		return nil, err
	}

	reports := make([]Report, len(rawReports))
	for i := range rawReports {
		cooked, err := rawReports[i].Cook()
		if err != nil {
			return nil, err
		}
		reports[i] = cooked
	}

	return reports, nil
}

// ReportStore stores a Report about a stream going live announcement.
func ReportStore(c context.Context, r Report) error {
	db := FromContext(c)

	_, err := db.ExecContext(
		c,
		`INSERT INTO [reports] ([uri], [reported_at]) VALUES (?, ?)`,
		r.URI,
		r.ReportedAt.Format(time.RFC3339),
	)

	return err
}

// ReportLatestFor yields the latest report for a particular stream.
//
// If there is no report, sql.ErrNoRows is propagated as a return value.
func ReportLatestFor(c context.Context, uri string) (Report, error) {
	db := FromContext(c)

	var raw RawReport
	err := db.GetContext(
		c,
		&raw,
		`SELECT
			[uri]
			, [reported_at]
		FROM
			[reports]
		WHERE
			[uri] = ?
		ORDER BY datetime([reported_at]) DESC
		LIMIT 1`,
		uri,
	)

	if err != nil {
		return Report{}, err
	}

	return raw.Cook()
}
