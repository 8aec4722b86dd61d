package canvas

import (
	"strings"
	"unicode/utf8"

	"mailcanvas/internal/domain"
)

// RenameInteractivePrimitive sets the name of an overlay primitive. Names
// must be non-empty, at most domain.MaxNameLength runes and unique within
// the wrapper; violations return tree unchanged with domain.ErrNameEmpty,
// domain.ErrNameTooLong or domain.ErrNameTaken. A stale address is a no-op.
func RenameInteractivePrimitive(tree []domain.CanvasBlock, wrapperID, primitiveID, newName string) ([]domain.CanvasBlock, error) {
	ri := domain.FindBlock(tree, wrapperID)
	if ri < 0 || tree[ri].Type != domain.BlockTypeWrapper {
		return tree, nil
	}
	siblings := tree[ri].Blocks
	if domain.FindPrimitive(siblings, primitiveID) < 0 {
		return tree, nil
	}

	if strings.TrimSpace(newName) == "" {
		return tree, domain.ErrNameEmpty
	}
	if utf8.RuneCountInString(newName) > domain.MaxNameLength {
		return tree, domain.ErrNameTooLong
	}
	if nameTaken(siblings, newName, primitiveID) {
		return tree, domain.ErrNameTaken
	}

	sel := domain.WrapperPrimitiveSelection(wrapperID, primitiveID)
	return UpdatePrimitive(tree, sel, func(p domain.Primitive) (domain.Primitive, bool) {
		ip, ok := p.Interactive()
		if !ok {
			return p, false
		}
		if ip.Label() == newName {
			return p, false
		}
		p.Payload = ip.WithLabel(newName)
		return p, true
	}), nil
}

// nameTaken reports whether any sibling other than exceptID uses name.
func nameTaken(siblings []domain.Primitive, name, exceptID string) bool {
	for _, s := range siblings {
		if s.ID == exceptID {
			continue
		}
		if ip, ok := s.Interactive(); ok && ip.Label() == name {
			return true
		}
	}
	return false
}
