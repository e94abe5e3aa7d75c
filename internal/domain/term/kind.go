package term

import (
	"strings"

	"github.com/turtacn/PatentSentry/pkg/errors"
)

// Kind is the closed set of patent kinds the engine can evaluate.
type Kind string

const (
	KindUtility Kind = "utility"
	KindPlant   Kind = "plant"
	KindDesign  Kind = "design"
)

// Kinds lists every supported Kind.
var Kinds = []Kind{KindUtility, KindPlant, KindDesign}

// ParseKind accepts "utility", "plant" or "design" in any case.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindUtility, KindPlant, KindDesign:
		return k, nil
	default:
		return "", errors.Newf(errors.ErrCodeUnknownPatentKind, "unknown patent kind %q", s)
	}
}

func (k Kind) String() string { return string(k) }

// IsValid reports whether k is one of Kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindUtility, KindPlant, KindDesign:
		return true
	}
	return false
}

// HasMaintenanceFees reports whether a fee schedule is produced for the kind.
// Only design patents are exempt.
func (k Kind) HasMaintenanceFees() bool {
	return k == KindUtility || k == KindPlant
}
