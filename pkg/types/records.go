package types

// Workstream is the top-level grouping extracted from action rows.
type Workstream struct {
	ID    string  `db:"id"`
	Title *string `db:"title"`
}

// WorkPackage groups actions inside a workstream.
type WorkPackage struct {
	ID           int     `db:"id"`
	WorkstreamID *string `db:"workstream_id"`
	Title        *string `db:"title"`
	Goal         *string `db:"goal"`
}

// Action is the central entity record. Scalars map 1:1 to columns; the list
// fields hold many-to-many associations by name/email and are persisted to
// link tables, not on the action row.
type Action struct {
	ID              int     `db:"id"`
	SubID           string  `db:"sub_id"`
	WorkPackageID   *int    `db:"work_package_id"`
	Title           *string `db:"title"`
	SubAction       *string `db:"sub_action"`
	DocParagraphNum *string `db:"doc_paragraph_number"`
	DocParagraph    *string `db:"doc_paragraph_text"`
	Scope           *string `db:"scope_definition"`
	LegalNotes      *string `db:"legal_considerations"`
	Scenario        *string `db:"advancement_scenario"`
	BudgetNote      *string `db:"budget_note"`
	IsBigTicket     bool    `db:"is_big_ticket"`
	NeedsEngagement bool    `db:"needs_engagement"`
	TrackingStatus  *string `db:"tracking_status"`
	PublicStatus    *string `db:"public_status"`
	SourceRecordID  *string `db:"source_record_id"`
	IsSubaction     bool    `db:"is_subaction"`

	Leads          []string `db:"-"`
	FocalPoints    []string `db:"-"`
	MemberPersons  []string `db:"-"`
	SupportPersons []string `db:"-"`
	MemberEntities []string `db:"-"`
}

// Key returns the action's composite natural key.
func (a Action) Key() ActionKey {
	return ActionKey{ID: a.ID, SubID: a.SubID}
}

// Lead is a responsible lead entity, keyed by trimmed name.
type Lead struct {
	Name   string  `db:"name"`
	Entity *string `db:"entity"`

	// UserEmails are the users associated with this lead, persisted to the
	// user_leads link table.
	UserEmails []string `db:"-"`
}

// User is an approved dashboard user, keyed by lowercased email.
type User struct {
	Email    string  `db:"email"`
	FullName *string `db:"full_name"`
	Entity   *string `db:"entity"`
	Status   *string `db:"status"`
	Role     *string `db:"role"`

	// LeadNames come from the delimiter-joined lead_positions column and are
	// persisted to the user_leads link table.
	LeadNames []string `db:"-"`
}

// Milestone kinds, in display-tiebreak order.
const (
	KindFirst    = "first"
	KindSecond   = "second"
	KindThird    = "third"
	KindUpcoming = "upcoming"
	KindFinal    = "final"
)

// kindRanks orders kinds for serial assignment when deadlines tie or are
// absent.
var kindRanks = map[string]int{
	KindFirst:    0,
	KindSecond:   1,
	KindThird:    2,
	KindUpcoming: 3,
	KindFinal:    4,
}

// KindRank returns the tiebreak rank of a milestone kind. Unknown kinds sort
// after all known ones.
func KindRank(kind string) int {
	if r, ok := kindRanks[kind]; ok {
		return r
	}
	return len(kindRanks)
}

// ValidKind reports whether kind is a recognized milestone kind.
func ValidKind(kind string) bool {
	_, ok := kindRanks[kind]
	return ok
}

// Milestone is a dated detail record of an action with an explicit per-action
// serial number establishing display order. AuthorEmail is nil for rows seeded
// by import runs and set for human-authored rows; seed rows may be wiped and
// reloaded, human rows never.
type Milestone struct {
	ID          int64        `db:"id"`
	ActionID    int          `db:"action_id"`
	ActionSubID string       `db:"action_sub_id"`
	Serial      int          `db:"serial_number"`
	Kind        string       `db:"kind"`
	Description *string      `db:"description"`
	Deadline    Date         `db:"deadline"`
	IsPublic    bool         `db:"is_public"`
	AuthorEmail *string      `db:"author_email"`
	Status      ReviewStatus `db:"status"`
}

// Note is a free-text detail record of an action, optionally dated, with a
// header discriminant identifying its import source.
type Note struct {
	ID          int64   `db:"id"`
	ActionID    int     `db:"action_id"`
	ActionSubID string  `db:"action_sub_id"`
	AuthorEmail *string `db:"author_email"`
	Header      *string `db:"header"`
	NoteDate    Date    `db:"note_date"`
	Body        string  `db:"body"`
}

// Question is a detail record like Note, optionally linked to one of the
// action's milestones.
type Question struct {
	ID          int64   `db:"id"`
	ActionID    int     `db:"action_id"`
	ActionSubID string  `db:"action_sub_id"`
	AuthorEmail *string `db:"author_email"`
	Header      *string `db:"header"`
	Date        Date    `db:"question_date"`
	Body        string  `db:"body"`
	MilestoneID *int64  `db:"milestone_id"`
}
