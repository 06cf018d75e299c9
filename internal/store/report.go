package store

// Report accumulates per-stage counts for one batch run. Pipelines fill it
// and log it as the run summary.
type Report struct {
	Fetched  int
	Upserted map[string]int
	Links    map[string]int
	Rejected map[string]int
	Deleted  int
	Inserted int
	Updated  int
	Skipped  int
}

// NewReport returns an empty report.
func NewReport() *Report {
	return &Report{
		Upserted: map[string]int{},
		Links:    map[string]int{},
		Rejected: map[string]int{},
	}
}

// AddUpserted records n upserted rows for a table.
func (r *Report) AddUpserted(table string, n int) {
	r.Upserted[table] += n
}

// AddLinks records n reconciled link rows for a table.
func (r *Report) AddLinks(table string, n int) {
	r.Links[table] += n
}

// AddRejected records n links rejected against a table for missing
// references.
func (r *Report) AddRejected(table string, n int) {
	r.Rejected[table] += n
}

// Fields renders the report as logger key/value pairs.
func (r *Report) Fields() []interface{} {
	fields := []interface{}{"fetched", r.Fetched}
	for table, n := range r.Upserted {
		fields = append(fields, "upserted_"+table, n)
	}
	for table, n := range r.Links {
		fields = append(fields, "links_"+table, n)
	}
	for table, n := range r.Rejected {
		fields = append(fields, "rejected_"+table, n)
	}
	if r.Deleted > 0 {
		fields = append(fields, "deleted", r.Deleted)
	}
	if r.Inserted > 0 {
		fields = append(fields, "inserted", r.Inserted)
	}
	if r.Updated > 0 {
		fields = append(fields, "updated", r.Updated)
	}
	if r.Skipped > 0 {
		fields = append(fields, "skipped", r.Skipped)
	}
	return fields
}
