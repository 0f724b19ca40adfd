package internal

type AuthorizationStatus int

const (
	NotDetermined AuthorizationStatus = iota
	Denied
	Restricted
	Authorized
	Unknown
)

func (s AuthorizationStatus) String() string {
	switch s {
	case NotDetermined:
		return "notDetermined"
	case Denied:
		return "denied"
	case Restricted:
		return "restricted"
	case Authorized:
		return "authorized"
	}
	return "unknown"
}

// ParseAuthorizationStatus is the inverse of AuthorizationStatus.String,
// anything it doesn't recognise is Unknown.
func ParseAuthorizationStatus(s string) AuthorizationStatus {
	switch s {
	case "notDetermined":
		return NotDetermined
	case "denied":
		return Denied
	case "restricted":
		return Restricted
	case "authorized":
		return Authorized
	}
	return Unknown
}
