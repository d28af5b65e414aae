package models

// KeywordCategory groups significance keywords by the kind of regulatory
// signal they carry. The classifier maps categories to priorities.
type KeywordCategory string

const (
	KeywordDeadline   KeywordCategory = "deadline"
	KeywordSanction   KeywordCategory = "sanction"
	KeywordRegulatory KeywordCategory = "regulatory"
	KeywordGeneral    KeywordCategory = "general"
)

func (c KeywordCategory) Valid() bool {
	switch c {
	case KeywordDeadline, KeywordSanction, KeywordRegulatory, KeywordGeneral:
		return true
	}
	return false
}

// Keyword is a domain term whose appearance in a diff marks the change as
// significant. Terms are matched case-insensitively.
type Keyword struct {
	Term     string
	Category KeywordCategory
}
