package schema

// Requirement names a column an operation cannot run without.
type Requirement int

const (
	// NeedHeader requires at least one named column.
	NeedHeader Requirement = iota
	// NeedID requires the id column.
	NeedID
	// NeedIsEnabled requires the is_enabled column.
	NeedIsEnabled
)

// MissingColumnError reports that a required column is absent from the header.
// Column is empty when the header itself is missing.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	switch e.Column {
	case "":
		return "Sheet is empty (no headers)"
	case ColIsEnabled:
		return `Sheet needs an "is_enabled" column for soft delete`
	default:
		return `Sheet needs an "` + e.Column + `" column`
	}
}

// Require checks the schema against each requirement in order and returns
// the first one that fails.
func (s *Schema) Require(reqs ...Requirement) error {
	for _, r := range reqs {
		switch r {
		case NeedHeader:
			if s.Empty() {
				return &MissingColumnError{}
			}
		case NeedID:
			if !s.Has(ColID) {
				return &MissingColumnError{Column: ColID}
			}
		case NeedIsEnabled:
			if !s.Has(ColIsEnabled) {
				return &MissingColumnError{Column: ColIsEnabled}
			}
		}
	}
	return nil
}
