package json

import (
	"fmt"

	analyst "github.com/ledgerline/analyst"
)

// contentBlock is the JSON representation of a ContentBlock with a type discriminator.
type contentBlock struct {
	Type      string     `json:"type"`
	Text      *string    `json:"text,omitempty"`
	SQL       *string    `json:"sql,omitempty"`
	Columns   []string   `json:"columns,omitempty"`
	Rows      [][]string `json:"rows,omitempty"`
	TotalRows *int       `json:"total_rows,omitempty"`
	Truncated *bool      `json:"truncated,omitempty"`
	Note      *string    `json:"note,omitempty"`
}

func marshalContentBlocks(blocks []analyst.ContentBlock) ([]contentBlock, error) {
	result := make([]contentBlock, len(blocks))
	for i, b := range blocks {
		cb, err := marshalContentBlock(b)
		if err != nil {
			return nil, fmt.Errorf("content block %d: %w", i, err)
		}
		result[i] = cb
	}
	return result, nil
}

func marshalContentBlock(b analyst.ContentBlock) (contentBlock, error) {
	switch v := b.(type) {
	case analyst.TextBlock:
		return contentBlock{Type: "text", Text: &v.Text}, nil
	case analyst.TableBlock:
		return contentBlock{
			Type:      "table",
			SQL:       &v.SQL,
			Columns:   v.Columns,
			Rows:      v.Rows,
			TotalRows: &v.TotalRows,
			Truncated: &v.Truncated,
		}, nil
	case analyst.ErrorNoteBlock:
		return contentBlock{Type: "error_note", Note: &v.Note}, nil
	default:
		return contentBlock{}, fmt.Errorf("unknown content block type: %T", b)
	}
}

func unmarshalContentBlocks(dtos []contentBlock) ([]analyst.ContentBlock, error) {
	result := make([]analyst.ContentBlock, len(dtos))
	for i, dto := range dtos {
		b, err := unmarshalContentBlock(dto)
		if err != nil {
			return nil, fmt.Errorf("content block %d: %w", i, err)
		}
		result[i] = b
	}
	return result, nil
}

func unmarshalContentBlock(dto contentBlock) (analyst.ContentBlock, error) {
	switch dto.Type {
	case "text":
		var text string
		if dto.Text != nil {
			text = *dto.Text
		}
		return analyst.TextBlock{Text: text}, nil
	case "table":
		block := analyst.TableBlock{
			Columns: dto.Columns,
			Rows:    dto.Rows,
		}
		if dto.SQL != nil {
			block.SQL = *dto.SQL
		}
		if dto.TotalRows != nil {
			block.TotalRows = *dto.TotalRows
		}
		if dto.Truncated != nil {
			block.Truncated = *dto.Truncated
		}
		return block, nil
	case "error_note":
		var note string
		if dto.Note != nil {
			note = *dto.Note
		}
		return analyst.ErrorNoteBlock{Note: note}, nil
	default:
		return nil, fmt.Errorf("unknown content block type: %q", dto.Type)
	}
}
