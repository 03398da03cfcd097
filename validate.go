package analyst

import "fmt"

// Validate checks universal constraints on Request.
// Provider implementations may apply additional provider-specific validation.
func (r Request) Validate() error {
	if r.SemanticModel == "" {
		return fmt.Errorf("semantic model is required: %w", ErrValidation)
	}
	if len(r.Messages) == 0 {
		return fmt.Errorf("at least one message is required: %w", ErrValidation)
	}
	return nil
}

// ValidateMessage checks that a message's content blocks are valid for its role.
func ValidateMessage(msg Message) error {
	switch m := msg.(type) {
	case UserMessage:
		return validateBlocks(m.Content, m.Role(), allowText)
	case AnalystMessage:
		return validateBlocks(m.Content, m.Role(), allowText|allowTable|allowErrorNote)
	default:
		return fmt.Errorf("unknown message type %T: %w", msg, ErrValidation)
	}
}

type blockAllow uint8

const (
	allowText blockAllow = 1 << iota
	allowTable
	allowErrorNote
)

func validateBlocks(blocks []ContentBlock, role Role, allowed blockAllow) error {
	for _, b := range blocks {
		switch b.(type) {
		case TextBlock:
			if allowed&allowText == 0 {
				return fmt.Errorf("TextBlock not allowed in %s message: %w", role, ErrValidation)
			}
		case TableBlock:
			if allowed&allowTable == 0 {
				return fmt.Errorf("TableBlock not allowed in %s message: %w", role, ErrValidation)
			}
		case ErrorNoteBlock:
			if allowed&allowErrorNote == 0 {
				return fmt.Errorf("ErrorNoteBlock not allowed in %s message: %w", role, ErrValidation)
			}
		default:
			return fmt.Errorf("unknown content block type %T in %s message: %w", b, role, ErrValidation)
		}
	}
	return nil
}
