package board

import (
	"context"

	"leadintake_backend/internal/record"
	"leadintake_backend/platform/apperr"
	"leadintake_backend/platform/logger"
)

// Attachment is a binary file attached to the published item.
type Attachment struct {
	FileName string
	MIMEType string
	Data     []byte
}

// Publisher creates board items from assembled records. Publishing is
// at-least-once: no idempotency key exists, so a retry after a reported
// network failure may create a duplicate item.
type Publisher struct {
	client        *Client
	boardID       string
	dealerBoardID string
	fileColumnID  string
	log           *logger.Logger
}

// NewPublisher creates a publisher for the given boards. dealerBoardID may
// be empty, which disables secondary dealership records.
func NewPublisher(client *Client, boardID, dealerBoardID, fileColumnID string, log *logger.Logger) *Publisher {
	return &Publisher{
		client:        client,
		boardID:       boardID,
		dealerBoardID: dealerBoardID,
		fileColumnID:  fileColumnID,
		log:           log,
	}
}

// Publish creates the primary item, uploads any attachments, and, when the
// flow requires it, creates a secondary dealership record. Attachment and
// secondary-record failures are logged and do not fail the publish; only
// the primary creation is load-bearing.
func (p *Publisher) Publish(ctx context.Context, rec *record.Record, attachments []Attachment, withDealerRecord bool) (string, error) {
	itemID, err := p.createItem(ctx, p.boardID, rec.ItemName, rec)
	if err != nil {
		return "", apperr.Publish("failed to create board item", err)
	}

	for _, att := range attachments {
		if err := p.client.UploadFile(ctx, itemID, p.fileColumnID, att.FileName, att.Data); err != nil {
			p.log.Warn("attachment upload failed",
				"item_id", itemID,
				"file", att.FileName,
				"error", err,
			)
		}
	}

	if withDealerRecord && p.dealerBoardID != "" {
		if err := p.createDealerRecord(ctx, rec, itemID); err != nil {
			p.log.Warn("dealer record creation failed",
				"item_id", itemID,
				"error", err,
			)
		}
	}

	return itemID, nil
}

func (p *Publisher) createItem(ctx context.Context, boardID, itemName string, rec *record.Record) (string, error) {
	columnValues, err := EncodeColumns(rec)
	if err != nil {
		return "", err
	}

	var data createItemData
	err = p.client.Do(ctx, createItemMutation, map[string]any{
		"boardID":      boardID,
		"itemName":     itemName,
		"columnValues": columnValues,
	}, &data)
	if err != nil {
		return "", err
	}
	return data.CreateItem.ID, nil
}

// createDealerRecord creates the secondary dealership item, carrying the
// agent and source columns plus a reference to the primary item.
func (p *Publisher) createDealerRecord(ctx context.Context, rec *record.Record, primaryItemID string) error {
	dealerName := rec.DealerName()
	if dealerName == "" {
		return nil
	}

	dealerRec := &record.Record{
		ItemName:  dealerName,
		SourceTag: rec.SourceTag,
		Columns: map[string]record.Value{
			record.ColumnAgentName: rec.Columns[record.ColumnAgentName],
			record.ColumnSource:    record.TextValue(rec.SourceTag),
			"text_lead_item":       record.TextValue(primaryItemID),
		},
	}

	_, err := p.createItem(ctx, p.dealerBoardID, dealerRec.ItemName, dealerRec)
	return err
}
