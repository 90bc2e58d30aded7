package domain

import (
	"testing"
	"time"
)

func TestDecodeMenuAction(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    MenuAction
		wantErr bool
	}{
		{
			name: "document action",
			data: "doc:identity_card",
			want: MenuAction{Type: ActionUploadDocument, Document: DocumentIdentityCard},
		},
		{
			name: "metadata action",
			data: "meta:dealership",
			want: MenuAction{Type: ActionEnterMetadata, Field: FieldDealership},
		},
		{
			name:    "unknown document kind",
			data:    "doc:passport",
			wantErr: true,
		},
		{
			name:    "unknown metadata field",
			data:    "meta:email",
			wantErr: true,
		},
		{
			name:    "unknown prefix",
			data:    "cmd:restart",
			wantErr: true,
		},
		{
			name:    "no separator",
			data:    "identity_card",
			wantErr: true,
		},
		{
			name:    "empty",
			data:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeMenuAction(tt.data)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DecodeMenuAction(%q) expected error, got %+v", tt.data, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeMenuAction(%q) unexpected error: %v", tt.data, err)
			}
			if got != tt.want {
				t.Errorf("DecodeMenuAction(%q) = %+v, want %+v", tt.data, got, tt.want)
			}
		})
	}
}

func TestMenuActionEncodeRoundTrip(t *testing.T) {
	actions := []MenuAction{
		{Type: ActionUploadDocument, Document: DocumentIdentityCard},
		{Type: ActionUploadDocument, Document: DocumentLicense},
		{Type: ActionUploadDocument, Document: DocumentLogCard},
		{Type: ActionEnterMetadata, Field: FieldAgentName},
		{Type: ActionEnterMetadata, Field: FieldDealership},
		{Type: ActionEnterMetadata, Field: FieldContact},
	}

	for _, action := range actions {
		decoded, err := DecodeMenuAction(action.Encode())
		if err != nil {
			t.Fatalf("decode of %q failed: %v", action.Encode(), err)
		}
		if decoded != action {
			t.Errorf("round trip of %q = %+v, want %+v", action.Encode(), decoded, action)
		}
	}
}

func TestVariantRequirements(t *testing.T) {
	tests := []struct {
		name       string
		variant    FlowVariant
		wantDocs   []DocumentKind
		wantFields []MetadataField
		wantDealer bool
	}{
		{
			name:       "new policy",
			variant:    VariantNewPolicy,
			wantDocs:   []DocumentKind{DocumentIdentityCard, DocumentLicense, DocumentLogCard},
			wantFields: []MetadataField{FieldAgentName, FieldDealership, FieldContact},
			wantDealer: true,
		},
		{
			name:       "renewal",
			variant:    VariantRenewal,
			wantDocs:   []DocumentKind{DocumentIdentityCard, DocumentLogCard},
			wantFields: []MetadataField{FieldAgentName, FieldContact},
			wantDealer: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			docs := tt.variant.RequiredDocuments()
			if len(docs) != len(tt.wantDocs) {
				t.Fatalf("RequiredDocuments() = %v, want %v", docs, tt.wantDocs)
			}
			for i, kind := range tt.wantDocs {
				if docs[i] != kind {
					t.Errorf("RequiredDocuments()[%d] = %v, want %v", i, docs[i], kind)
				}
			}

			fields := tt.variant.RequiredMetadata()
			if len(fields) != len(tt.wantFields) {
				t.Fatalf("RequiredMetadata() = %v, want %v", fields, tt.wantFields)
			}
			for i, field := range tt.wantFields {
				if fields[i] != field {
					t.Errorf("RequiredMetadata()[%d] = %v, want %v", i, fields[i], field)
				}
			}

			if got := tt.variant.RequiresDealerRecord(); got != tt.wantDealer {
				t.Errorf("RequiresDealerRecord() = %v, want %v", got, tt.wantDealer)
			}
		})
	}
}

func TestParseVariant(t *testing.T) {
	if v, ok := ParseVariant("renewal"); !ok || v != VariantRenewal {
		t.Errorf("ParseVariant(renewal) = %v, %v", v, ok)
	}
	if v, ok := ParseVariant("new-policy"); !ok || v != VariantNewPolicy {
		t.Errorf("ParseVariant(new-policy) = %v, %v", v, ok)
	}
	if _, ok := ParseVariant("unknown"); ok {
		t.Error("ParseVariant(unknown) should not parse")
	}
}

func TestOutstandingMenuExactness(t *testing.T) {
	now := time.Now()
	conv := NewConversation("chat-1", VariantNewPolicy, now)
	conv.Metadata[FieldAgentName] = "Alice Tan"

	// Nothing uploaded yet: three documents then two remaining fields.
	actions := conv.Outstanding()
	wantLen := 5
	if len(actions) != wantLen {
		t.Fatalf("Outstanding() returned %d actions, want %d: %+v", len(actions), wantLen, actions)
	}
	for i := 0; i < 3; i++ {
		if actions[i].Type != ActionUploadDocument {
			t.Errorf("action %d = %+v, want document upload", i, actions[i])
		}
	}

	// Satisfy one document and one field; both must disappear, no duplicates.
	conv.MarkUploaded(DocumentLicense, map[string]string{"license_number": "S1234567A"})
	conv.Metadata[FieldDealership] = "Orchard Motors"

	actions = conv.Outstanding()
	seen := make(map[string]bool)
	for _, action := range actions {
		key := action.Encode()
		if seen[key] {
			t.Errorf("duplicate menu action %q", key)
		}
		seen[key] = true
		if action.Document == DocumentLicense {
			t.Error("uploaded document still offered on menu")
		}
		if action.Field == FieldDealership {
			t.Error("populated field still offered on menu")
		}
	}
	if len(actions) != 3 {
		t.Errorf("Outstanding() returned %d actions, want 3", len(actions))
	}

	if conv.Complete() {
		t.Error("Complete() should be false with outstanding items")
	}

	conv.MarkUploaded(DocumentIdentityCard, nil)
	conv.MarkUploaded(DocumentLogCard, map[string]string{"vehicle_make": "Toyota"})
	conv.Metadata[FieldContact] = "91234567"

	if !conv.Complete() {
		t.Errorf("Complete() should be true, outstanding: %+v", conv.Outstanding())
	}
	if got := conv.Outstanding(); len(got) != 0 {
		t.Errorf("Outstanding() after completion = %+v, want empty", got)
	}
}

func TestMarkUploadedIgnoresUnrequiredKind(t *testing.T) {
	conv := NewConversation("chat-2", VariantRenewal, time.Now())

	conv.MarkUploaded(DocumentLicense, map[string]string{"license_number": "X"})

	if conv.Requires(DocumentLicense) {
		t.Error("renewal must not require a driving license")
	}
	fields := conv.ExtractedFields()
	if _, ok := fields[DocumentLicense]; ok {
		t.Error("unrequired upload leaked into extracted fields")
	}
}

func TestExtractedFieldsSkipsMissingDocuments(t *testing.T) {
	conv := NewConversation("chat-3", VariantRenewal, time.Now())
	conv.MarkUploaded(DocumentIdentityCard, map[string]string{"id_number": "S9876543B"})

	fields := conv.ExtractedFields()
	if len(fields) != 1 {
		t.Fatalf("ExtractedFields() = %v, want only the uploaded document", fields)
	}
	if fields[DocumentIdentityCard]["id_number"] != "S9876543B" {
		t.Errorf("identity fields = %v", fields[DocumentIdentityCard])
	}
}
