package utils

import "strings"

const whatsAppGreeting = "Hey I'm contacting you to talk about your "

// WhatsAppLink builds the wa.me deep link a buyer uses to message a seller
// about one listing.
func WhatsAppLink(contact, title string) string {
	return "https://wa.me/" + contact + "?text=" + EncodeURIComponent(whatsAppGreeting+title)
}

// EncodeURIComponent escapes s the way browsers do for a URI component:
// everything except A-Z a-z 0-9 and - _ . ! ~ * ' ( ) is percent-encoded as UTF-8.
func EncodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isURIUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isURIUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
