package store

import (
	"fmt"

	"github.com/huandu/go-sqlbuilder"
)

// Schema DDL. Identical between flavors except for the auto-increment id
// column of the detail tables, injected per flavor.

const (
	createWorkstreams = `CREATE TABLE IF NOT EXISTS workstreams (
    id TEXT PRIMARY KEY,
    title TEXT
);`

	createWorkPackages = `CREATE TABLE IF NOT EXISTS work_packages (
    id INTEGER PRIMARY KEY,
    workstream_id TEXT,
    title TEXT,
    goal TEXT
);`

	createActions = `CREATE TABLE IF NOT EXISTS actions (
    id INTEGER NOT NULL,
    sub_id TEXT NOT NULL DEFAULT '',
    work_package_id INTEGER,
    title TEXT,
    sub_action TEXT,
    doc_paragraph_number TEXT,
    doc_paragraph_text TEXT,
    scope_definition TEXT,
    legal_considerations TEXT,
    advancement_scenario TEXT,
    budget_note TEXT,
    is_big_ticket BOOLEAN NOT NULL DEFAULT FALSE,
    needs_engagement BOOLEAN NOT NULL DEFAULT FALSE,
    tracking_status TEXT,
    public_status TEXT,
    source_record_id TEXT,
    is_subaction BOOLEAN NOT NULL DEFAULT FALSE,
    PRIMARY KEY (id, sub_id)
);`

	createLeads = `CREATE TABLE IF NOT EXISTS leads (
    name TEXT PRIMARY KEY,
    entity TEXT
);`

	createUsers = `CREATE TABLE IF NOT EXISTS users (
    email TEXT PRIMARY KEY,
    full_name TEXT,
    entity TEXT,
    status TEXT,
    role TEXT
);`

	// Entities are maintained by the org-chart system; this side only reads
	// them to validate member-entity links.
	createEntities = `CREATE TABLE IF NOT EXISTS entities (
    name TEXT PRIMARY KEY
);`

	createWorkPackageLeads = `CREATE TABLE IF NOT EXISTS work_package_leads (
    work_package_id INTEGER NOT NULL,
    lead_name TEXT NOT NULL,
    PRIMARY KEY (work_package_id, lead_name)
);`

	createWorkPackageFocalPoints = `CREATE TABLE IF NOT EXISTS work_package_focal_points (
    work_package_id INTEGER NOT NULL,
    user_email TEXT NOT NULL,
    PRIMARY KEY (work_package_id, user_email)
);`

	createActionLeads = `CREATE TABLE IF NOT EXISTS action_leads (
    action_id INTEGER NOT NULL,
    action_sub_id TEXT NOT NULL DEFAULT '',
    lead_name TEXT NOT NULL,
    PRIMARY KEY (action_id, action_sub_id, lead_name)
);`

	createActionFocalPoints = `CREATE TABLE IF NOT EXISTS action_focal_points (
    action_id INTEGER NOT NULL,
    action_sub_id TEXT NOT NULL DEFAULT '',
    user_email TEXT NOT NULL,
    PRIMARY KEY (action_id, action_sub_id, user_email)
);`

	createActionMemberPersons = `CREATE TABLE IF NOT EXISTS action_member_persons (
    action_id INTEGER NOT NULL,
    action_sub_id TEXT NOT NULL DEFAULT '',
    user_email TEXT NOT NULL,
    PRIMARY KEY (action_id, action_sub_id, user_email)
);`

	createActionSupportPersons = `CREATE TABLE IF NOT EXISTS action_support_persons (
    action_id INTEGER NOT NULL,
    action_sub_id TEXT NOT NULL DEFAULT '',
    user_email TEXT NOT NULL,
    PRIMARY KEY (action_id, action_sub_id, user_email)
);`

	createActionMemberEntities = `CREATE TABLE IF NOT EXISTS action_member_entities (
    action_id INTEGER NOT NULL,
    action_sub_id TEXT NOT NULL DEFAULT '',
    entity TEXT NOT NULL,
    PRIMARY KEY (action_id, action_sub_id, entity)
);`

	createUserLeads = `CREATE TABLE IF NOT EXISTS user_leads (
    user_email TEXT NOT NULL,
    lead_name TEXT NOT NULL,
    PRIMARY KEY (user_email, lead_name)
);`

	createActionMilestones = `CREATE TABLE IF NOT EXISTS action_milestones (
    id %s,
    action_id INTEGER NOT NULL,
    action_sub_id TEXT NOT NULL DEFAULT '',
    serial_number INTEGER NOT NULL DEFAULT 0,
    kind TEXT NOT NULL,
    description TEXT,
    deadline DATE,
    is_public BOOLEAN NOT NULL DEFAULT FALSE,
    author_email TEXT,
    status TEXT NOT NULL DEFAULT 'draft',
    is_draft BOOLEAN NOT NULL DEFAULT TRUE,
    needs_attention BOOLEAN NOT NULL DEFAULT FALSE,
    attention_to_timeline BOOLEAN NOT NULL DEFAULT FALSE,
    confirmation_needed BOOLEAN NOT NULL DEFAULT FALSE,
    needs_ola_review BOOLEAN NOT NULL DEFAULT FALSE,
    reviewed_by_ola BOOLEAN NOT NULL DEFAULT FALSE,
    is_approved BOOLEAN NOT NULL DEFAULT FALSE,
    finalized BOOLEAN NOT NULL DEFAULT FALSE,
    review_category TEXT NOT NULL DEFAULT 'needs_review'
);`

	createActionNotes = `CREATE TABLE IF NOT EXISTS action_notes (
    id %s,
    action_id INTEGER NOT NULL,
    action_sub_id TEXT NOT NULL DEFAULT '',
    author_email TEXT,
    header TEXT,
    note_date DATE,
    body TEXT NOT NULL,
    review_category TEXT NOT NULL DEFAULT 'needs_review'
);`

	createActionQuestions = `CREATE TABLE IF NOT EXISTS action_questions (
    id %s,
    action_id INTEGER NOT NULL,
    action_sub_id TEXT NOT NULL DEFAULT '',
    author_email TEXT,
    header TEXT,
    question_date DATE,
    body TEXT NOT NULL,
    milestone_id BIGINT,
    review_category TEXT NOT NULL DEFAULT 'needs_review'
);`
)

// schemaFor returns the ordered DDL statements for one flavor.
func schemaFor(flavor sqlbuilder.Flavor) []string {
	serial := "BIGSERIAL PRIMARY KEY"
	if flavor == sqlbuilder.SQLite {
		serial = "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
	return []string{
		createWorkstreams,
		createWorkPackages,
		createActions,
		createLeads,
		createUsers,
		createEntities,
		createWorkPackageLeads,
		createWorkPackageFocalPoints,
		createActionLeads,
		createActionFocalPoints,
		createActionMemberPersons,
		createActionSupportPersons,
		createActionMemberEntities,
		createUserLeads,
		fmt.Sprintf(createActionMilestones, serial),
		fmt.Sprintf(createActionNotes, serial),
		fmt.Sprintf(createActionQuestions, serial),
	}
}
