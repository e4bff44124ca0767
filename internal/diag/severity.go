package diag

// Severity ranks a diagnostic's importance. Error suppresses code
// generation for the affected model; Warning and Info never do.
type Severity uint8

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return "unknown"
}
