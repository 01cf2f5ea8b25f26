package utils

func ToStringPtr(s string) *string {
	return &s
}

func ToUintPtr(u uint) *uint {
	return &u
}

// StringOrNil returns nil for the empty string.
func StringOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func DerefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
