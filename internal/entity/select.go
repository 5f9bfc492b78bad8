package entity

import (
	"context"
	"fmt"
	"strings"

	"github.com/nerrad567/econext-bridge/internal/econext"
)

// Select is an enumerated settable entity.
type Select struct {
	base
	desc SelectDescription
}

var _ Commander = (*Select)(nil)

// Capability implements Entity.
func (s *Select) Capability() Capability { return CapabilitySelect }

// Options returns the option labels in order.
func (s *Select) Options() []string { return s.desc.Enum.Labels() }

// CurrentOption maps the current raw value to its label. False means no
// current option: no value, or a value without a mapping.
func (s *Select) CurrentOption() (string, bool) {
	v, ok := s.value()
	if !ok {
		return "", false
	}
	return s.desc.Enum.Label(v)
}

// State implements Entity.
func (s *Select) State() (string, bool) { return s.CurrentOption() }

// Attributes implements Entity.
func (s *Select) Attributes() map[string]any {
	return map[string]any{"options": s.Options()}
}

// SelectOption writes the raw value mapped to label. Unknown labels are
// logged and rejected with ErrUnknownOption before any device call.
func (s *Select) SelectOption(ctx context.Context, label string) error {
	raw, ok := s.desc.Enum.Raw(label)
	if !ok {
		s.log.Error("unknown option", "key", s.desc.Key, "option", label)
		return fmt.Errorf("%w: %q for %s", ErrUnknownOption, label, s.desc.Key)
	}
	return s.write(ctx, econext.Number(float64(raw)), true)
}

// Command treats payload as an option label.
func (s *Select) Command(ctx context.Context, payload string) error {
	return s.SelectOption(ctx, strings.TrimSpace(payload))
}
