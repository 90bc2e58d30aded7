package domain

// DocumentKind is the closed enumeration of uploads the flow can require.
type DocumentKind string

const (
	DocumentIdentityCard DocumentKind = "identity_card"
	DocumentLicense      DocumentKind = "driving_license"
	DocumentLogCard      DocumentKind = "log_card"
)

var documentLabels = map[DocumentKind]string{
	DocumentIdentityCard: "Identity card",
	DocumentLicense:      "Driving license",
	DocumentLogCard:      "Vehicle log card",
}

// Label returns the human-readable name shown in menus and prompts.
func (k DocumentKind) Label() string {
	if label, ok := documentLabels[k]; ok {
		return label
	}
	return string(k)
}

// IsKnownDocumentKind reports whether the kind is part of the enumeration.
func IsKnownDocumentKind(kind DocumentKind) bool {
	_, ok := documentLabels[kind]
	return ok
}

// MetadataField is the closed enumeration of agent-entered fields.
type MetadataField string

const (
	FieldAgentName  MetadataField = "agent_name"
	FieldDealership MetadataField = "dealership"
	FieldContact    MetadataField = "contact_number"
)

var metadataLabels = map[MetadataField]string{
	FieldAgentName:  "Agent name",
	FieldDealership: "Dealership",
	FieldContact:    "Contact number",
}

// Label returns the human-readable name shown in menus and prompts.
func (f MetadataField) Label() string {
	if label, ok := metadataLabels[f]; ok {
		return label
	}
	return string(f)
}

// FlowVariant selects which documents and metadata a conversation must
// collect. The requirement sets are fixed per variant.
type FlowVariant string

const (
	VariantNewPolicy FlowVariant = "new-policy"
	VariantRenewal   FlowVariant = "renewal"
)

// ParseVariant maps a /start payload to a flow variant.
func ParseVariant(s string) (FlowVariant, bool) {
	switch FlowVariant(s) {
	case VariantNewPolicy:
		return VariantNewPolicy, true
	case VariantRenewal:
		return VariantRenewal, true
	default:
		return "", false
	}
}

// RequiredDocuments returns the document kinds the variant must collect,
// in menu order.
func (v FlowVariant) RequiredDocuments() []DocumentKind {
	switch v {
	case VariantRenewal:
		return []DocumentKind{DocumentIdentityCard, DocumentLogCard}
	default:
		return []DocumentKind{DocumentIdentityCard, DocumentLicense, DocumentLogCard}
	}
}

// RequiredMetadata returns the metadata fields the variant must collect,
// in menu order. The agent name is always first; it is satisfied during
// the opening stage, before the menu is ever shown.
func (v FlowVariant) RequiredMetadata() []MetadataField {
	switch v {
	case VariantRenewal:
		return []MetadataField{FieldAgentName, FieldContact}
	default:
		return []MetadataField{FieldAgentName, FieldDealership, FieldContact}
	}
}

// RequiresDealerRecord reports whether publishing creates a secondary
// dealership record linked to the primary lead.
func (v FlowVariant) RequiresDealerRecord() bool {
	return v != VariantRenewal
}
