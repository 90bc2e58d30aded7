// Package record defines the assembled record handed to the board publisher.
package record

// ValueKind discriminates the column value variants a board column accepts.
type ValueKind int

const (
	// ValueAbsent marks a column whose source data was missing or malformed.
	// Absent values are skipped during serialization; they are distinct from
	// an empty text value.
	ValueAbsent ValueKind = iota
	// ValueText is a plain string column value.
	ValueText
	// ValueDate is a calendar date in YYYY-MM-DD form.
	ValueDate
	// ValuePhone is a phone number with its country short code.
	ValuePhone
)

// Value is a tagged column value. Exactly the fields implied by Kind are set.
type Value struct {
	Kind    ValueKind
	Text    string
	Date    string
	Phone   string
	Country string
}

// TextValue constructs a text value.
func TextValue(s string) Value {
	return Value{Kind: ValueText, Text: s}
}

// DateValue constructs a date value from a YYYY-MM-DD string.
func DateValue(iso string) Value {
	return Value{Kind: ValueDate, Date: iso}
}

// PhoneValue constructs a phone value.
func PhoneValue(number, country string) Value {
	return Value{Kind: ValuePhone, Phone: number, Country: country}
}

// Absent constructs the explicit absent value.
func Absent() Value {
	return Value{Kind: ValueAbsent}
}

// IsAbsent reports whether the value carries no data.
func (v Value) IsAbsent() bool {
	return v.Kind == ValueAbsent
}

// Record is the flattened field set submitted to the external board.
// It is built at most once per conversation and never mutated afterwards.
type Record struct {
	ItemName  string
	SourceTag string
	Columns   map[string]Value
}

// DealerName returns the dealership column value if present, for the
// secondary dealership record.
func (r *Record) DealerName() string {
	v, ok := r.Columns[ColumnDealership]
	if !ok || v.Kind != ValueText {
		return ""
	}
	return v.Text
}

// Board column identifiers. These match the column setup of the intake board.
const (
	ColumnAgentName     = "text_agent"
	ColumnDealership    = "text_dealership"
	ColumnContact       = "phone_contact"
	ColumnIDNumber      = "text_id_number"
	ColumnOwnerID       = "text_owner_id"
	ColumnVehicleMake   = "text_vehicle_make"
	ColumnVehicleModel  = "text_vehicle_model"
	ColumnRegistration  = "date_registration"
	ColumnLicenseNumber = "text_license_number"
	ColumnLicenseClass  = "text_license_class"
	ColumnLicenseIssue  = "date_license_issue"
	ColumnSource        = "text_source"
)
