// Package assembler merges extracted document fields with agent-entered
// metadata into the canonical board record.
package assembler

import (
	"strings"
	"time"

	"leadintake_backend/internal/intake/domain"
	"leadintake_backend/internal/record"
	"leadintake_backend/platform/phone"
)

// dateInputLayout is the textual date form the extraction service emits,
// e.g. "05 Jan 2023".
const dateInputLayout = "02 Jan 2006"

// dateOutputLayout is the canonical form the board expects.
const dateOutputLayout = "2006-01-02"

const defaultItemName = "Policy lead"

const phoneCountry = "SG"

// columnKind describes how a mapped field serializes.
type columnKind int

const (
	columnText columnKind = iota
	columnDate
)

// fieldMapping is the static table from extractor field names to board
// column identifiers. Extracted fields not listed here are dropped, which
// keeps the assembler forward-compatible with extractor schema changes.
var fieldMapping = map[domain.DocumentKind]map[string]struct {
	column string
	kind   columnKind
}{
	domain.DocumentIdentityCard: {
		"id_number": {record.ColumnIDNumber, columnText},
	},
	domain.DocumentLicense: {
		"license_number": {record.ColumnLicenseNumber, columnText},
		"license_class":  {record.ColumnLicenseClass, columnText},
		"issue_date":     {record.ColumnLicenseIssue, columnDate},
	},
	domain.DocumentLogCard: {
		"owner_id":          {record.ColumnOwnerID, columnText},
		"vehicle_make":      {record.ColumnVehicleMake, columnText},
		"vehicle_model":     {record.ColumnVehicleModel, columnText},
		"registration_date": {record.ColumnRegistration, columnDate},
	},
}

// itemNameField is the identity-card field promoted to the record's item name.
const itemNameField = "full_name"

// Assemble builds the board record from agent metadata and per-document
// extracted fields. It is a pure function: identical inputs produce an
// identical record regardless of the order the inputs were collected in.
// Documents whose extraction failed contribute nothing; their columns are
// simply never set.
func Assemble(metadata map[domain.MetadataField]string, docs map[domain.DocumentKind]map[string]string, sourceTag string) *record.Record {
	columns := make(map[string]record.Value)

	if name, ok := metadata[domain.FieldAgentName]; ok {
		columns[record.ColumnAgentName] = record.TextValue(name)
	}
	if dealer, ok := metadata[domain.FieldDealership]; ok {
		columns[record.ColumnDealership] = record.TextValue(dealer)
	}
	if contact, ok := metadata[domain.FieldContact]; ok {
		columns[record.ColumnContact] = record.PhoneValue(phone.NormalizeE164(contact), phoneCountry)
	}

	itemName := defaultItemName
	if name := strings.TrimSpace(docs[domain.DocumentIdentityCard][itemNameField]); name != "" {
		itemName = name
	}

	for kind, fields := range docs {
		mapping, ok := fieldMapping[kind]
		if !ok {
			continue
		}
		for field, value := range fields {
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			target, ok := mapping[field]
			if !ok {
				continue
			}
			switch target.kind {
			case columnDate:
				columns[target.column] = normalizeDate(value)
			default:
				columns[target.column] = record.TextValue(value)
			}
		}
	}

	columns[record.ColumnSource] = record.TextValue(sourceTag)

	return &record.Record{
		ItemName:  itemName,
		SourceTag: sourceTag,
		Columns:   columns,
	}
}

// normalizeDate reparses a "DD Mon YYYY" date into YYYY-MM-DD. Unparseable
// input maps to the explicit absent value so callers can distinguish
// "not provided" (column missing) from "malformed" (column absent).
func normalizeDate(value string) record.Value {
	parsed, err := time.Parse(dateInputLayout, strings.TrimSpace(value))
	if err != nil {
		return record.Absent()
	}
	return record.DateValue(parsed.Format(dateOutputLayout))
}

// NormalizeDate exposes date normalization for reuse; the boolean reports
// whether the input parsed.
func NormalizeDate(value string) (string, bool) {
	v := normalizeDate(value)
	if v.IsAbsent() {
		return "", false
	}
	return v.Date, true
}
