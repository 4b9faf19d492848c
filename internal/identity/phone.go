package identity

import "regexp"

var phoneRX = regexp.MustCompile(`^((8|\+7)[\- ]?)?(\(?\d{3}\)?[\- ]?)?[\d\- ]{7,10}$`)

// ValidPhone accepts Russian-style numbers such as "89991234567",
// "+7 999 123 45 67" and "8 (999) 123-45-67".
func ValidPhone(phone string) bool {
	return phoneRX.MatchString(phone)
}
