package dom

import "fmt"

// ErrorCode mirrors the DOMException codes raised by tree mutations.
type ErrorCode int

const (
	HierarchyRequestErr ErrorCode = 3
	WrongDocumentErr    ErrorCode = 4
	InvalidCharacterErr ErrorCode = 5
	NotFoundErr         ErrorCode = 8
	NamespaceErr        ErrorCode = 14
)

func (c ErrorCode) String() string {
	switch c {
	case HierarchyRequestErr:
		return "HIERARCHY_REQUEST_ERR"
	case WrongDocumentErr:
		return "WRONG_DOCUMENT_ERR"
	case InvalidCharacterErr:
		return "INVALID_CHARACTER_ERR"
	case NotFoundErr:
		return "NOT_FOUND_ERR"
	case NamespaceErr:
		return "NAMESPACE_ERR"
	default:
		return fmt.Sprintf("DOM_ERR(%d)", int(c))
	}
}

// Error is returned when a DOM operation violates a tree or naming constraint.
type Error struct {
	Msg  string
	Code ErrorCode
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("dom: %s: %s", e.Code, e.Msg)
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}
