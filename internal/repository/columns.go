package repository

import (
	"strconv"
	"strings"
)

// TableColumns is a table's column list in schema order. Queries build
// their SELECT, INSERT, and UPDATE fragments from it so a schema change
// only has to touch the definition here.
type TableColumns struct {
	TableName string
	Columns   []string
}

// Select returns the columns joined for a SELECT list.
func (tc TableColumns) Select() string {
	return strings.Join(tc.Columns, ", ")
}

// InsertColumns returns the column list for an INSERT statement.
func (tc TableColumns) InsertColumns() string {
	return tc.Select()
}

// Placeholders returns "$1, $2, ..." matching the column count.
func (tc TableColumns) Placeholders() string {
	var b strings.Builder
	for i := range tc.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(i + 1))
	}
	return b.String()
}

// UpdateSet returns the SET clause for an UPDATE keyed on the first
// column (the id). Placeholder numbering starts at $2 so $1 stays free
// for the id in the WHERE clause.
func (tc TableColumns) UpdateSet() string {
	var b strings.Builder
	for i, col := range tc.Columns[1:] {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(col)
		b.WriteString(" = $")
		b.WriteString(strconv.Itoa(i + 2))
	}
	return b.String()
}

// CallRecordColumns mirrors the call_records table.
var CallRecordColumns = TableColumns{
	TableName: "call_records",
	Columns: []string{
		"id",
		"call_id",
		"company_id",
		"customer_id",
		"lead_id",
		"ticket_id",
		"parent_call_id",
		"direction",
		"from_number",
		"to_number",
		"call_status",
		"start_timestamp",
		"end_timestamp",
		"duration_seconds",
		"billable_duration_seconds",
		"disconnect_reason",
		"transcript",
		"recording_url",
		"sentiment",
		"summary",
		"pest_issue",
		"street_address",
		"home_size",
		"yard_size",
		"decision_maker",
		"preferred_service_time",
		"contacted_other_companies",
		"created_at",
		"updated_at",
	},
}

// CustomerColumns mirrors the customers table.
var CustomerColumns = TableColumns{
	TableName: "customers",
	Columns: []string{
		"id",
		"company_id",
		"first_name",
		"last_name",
		"email",
		"phone",
		"street_address",
		"city",
		"state",
		"zip_code",
		"formatted_address",
		"created_at",
		"updated_at",
	},
}

// LeadColumns mirrors the leads table.
var LeadColumns = TableColumns{
	TableName: "leads",
	Columns: []string{
		"id",
		"company_id",
		"customer_id",
		"lead_source",
		"lead_type",
		"lead_status",
		"priority",
		"comments",
		"last_contacted_at",
		"created_at",
		"updated_at",
	},
}

// TicketColumns mirrors the tickets table.
var TicketColumns = TableColumns{
	TableName: "tickets",
	Columns: []string{
		"id",
		"company_id",
		"customer_id",
		"status",
		"source",
		"type",
		"call_direction",
		"service_type",
		"pest_type",
		"description",
		"archived",
		"converted_to_lead_id",
		"converted_to_support_case_id",
		"converted_at",
		"created_at",
		"updated_at",
	},
}

// SupportCaseColumns mirrors the support_cases table.
var SupportCaseColumns = TableColumns{
	TableName: "support_cases",
	Columns: []string{
		"id",
		"company_id",
		"customer_id",
		"ticket_id",
		"status",
		"service_type",
		"pest_type",
		"description",
		"created_at",
		"updated_at",
	},
}

// AgentColumns mirrors the agents table.
var AgentColumns = TableColumns{
	TableName: "agents",
	Columns: []string{
		"id",
		"agent_id",
		"company_id",
		"direction",
		"phone_number",
		"is_active",
		"created_at",
		"updated_at",
	},
}
