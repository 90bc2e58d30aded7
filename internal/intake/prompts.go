package intake

import (
	"fmt"
	"strings"

	"leadintake_backend/internal/intake/domain"
	"leadintake_backend/internal/record"
	"leadintake_backend/internal/transport"
)

const (
	msgWelcome = "Welcome to the policy intake assistant. What is your name?"
	msgHelp    = "Send /start to begin a new policy lead (or /start renewal for a renewal).\n" +
		"I will walk you through uploading the required documents and details,\n" +
		"then submit the lead to the board once you confirm.\n" +
		"Send /cancel at any time to discard the current intake."
	msgCancelled      = "Intake cancelled. Send /start to begin again."
	msgNothingActive  = "No intake in progress. Send /start to begin."
	msgChooseNext     = "What would you like to provide next?"
	msgConfirmHint    = "Reply \"yes\" to confirm the details above."
	msgSubmitHint     = "Confirmed. Reply \"submit\" to send the lead to the board."
	msgGenericFailure = "Something went wrong handling that. Please try the same step again."
	msgPublishOK      = "Lead submitted to the board. Thanks! Send /start for the next one."
	msgPublishFailed  = "Submitting the lead failed. Send /start to restart the intake and try again."
)

func promptForDocument(kind domain.DocumentKind) string {
	return fmt.Sprintf("Please upload a photo or PDF of the %s.", strings.ToLower(kind.Label()))
}

func promptForField(field domain.MetadataField) string {
	if field == domain.FieldContact {
		return "Please type the contact number (digits only)."
	}
	return fmt.Sprintf("Please type the %s.", strings.ToLower(field.Label()))
}

func rejectWrongMIME(kind domain.DocumentKind) string {
	return fmt.Sprintf("That file type is not supported. Please upload the %s as a JPEG, PNG, WebP or PDF.",
		strings.ToLower(kind.Label()))
}

func rejectTooLarge(kind domain.DocumentKind) string {
	return fmt.Sprintf("That file is too large. Please upload a smaller photo or PDF of the %s.",
		strings.ToLower(kind.Label()))
}

func rejectUnexpectedUpload(conv *domain.Conversation) string {
	if conv.Stage == domain.StageAwaitingUpload {
		return fmt.Sprintf("I am currently waiting for the %s. Please upload that document, or it will not be accepted.",
			strings.ToLower(conv.PendingDocument.Label()))
	}
	return "I was not expecting a file right now. Please pick an item from the menu first."
}

func rejectInvalidContact() string {
	return "The contact number must contain digits only. Please try again."
}

// menuButtons renders the outstanding requirements as selectable options.
func menuButtons(actions []domain.MenuAction) []transport.Button {
	buttons := make([]transport.Button, 0, len(actions))
	for _, action := range actions {
		buttons = append(buttons, transport.Button{
			Label: action.Label(),
			Data:  action.Encode(),
		})
	}
	return buttons
}

// summarize renders the assembled record for the confirmation prompt.
func summarize(rec *record.Record) string {
	var b strings.Builder
	b.WriteString("Here is the lead I will submit:\n")
	fmt.Fprintf(&b, "Lead: %s\n", rec.ItemName)

	order := []struct {
		column string
		label  string
	}{
		{record.ColumnAgentName, "Agent"},
		{record.ColumnDealership, "Dealership"},
		{record.ColumnContact, "Contact"},
		{record.ColumnIDNumber, "ID number"},
		{record.ColumnLicenseNumber, "License number"},
		{record.ColumnLicenseClass, "License class"},
		{record.ColumnLicenseIssue, "License issued"},
		{record.ColumnOwnerID, "Owner ID"},
		{record.ColumnVehicleMake, "Vehicle make"},
		{record.ColumnVehicleModel, "Vehicle model"},
		{record.ColumnRegistration, "Registered"},
	}

	for _, entry := range order {
		value, ok := rec.Columns[entry.column]
		if !ok {
			continue
		}
		switch value.Kind {
		case record.ValueText:
			fmt.Fprintf(&b, "%s: %s\n", entry.label, value.Text)
		case record.ValueDate:
			fmt.Fprintf(&b, "%s: %s\n", entry.label, value.Date)
		case record.ValuePhone:
			fmt.Fprintf(&b, "%s: %s\n", entry.label, value.Phone)
		case record.ValueAbsent:
			fmt.Fprintf(&b, "%s: (not readable)\n", entry.label)
		}
	}

	b.WriteString("\n")
	b.WriteString(msgConfirmHint)
	return b.String()
}
