package utils

import (
	"fmt"
)

// RestoredPrefix markiert wiederhergestellte Karten im Titel
const RestoredPrefix = "[RESTORED] "

// RestoreTitle stellt dem Titel die Wiederherstellungs-Markierung voran
func RestoreTitle(title string) string {
	return RestoredPrefix + title
}

// RestoreDescription setzt den Hinweis (Markdown) vor die alte Beschreibung
func RestoreDescription(reason, desc string) string {
	return fmt.Sprintf("**This card was restored**\n%s\n\n%s", reason, desc)
}

// TruncateText kürzt Text auf maximale Länge (in Zeichen, nicht Bytes)
func TruncateText(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}

	if maxLength <= 3 {
		return string(runes[:maxLength])
	}

	return string(runes[:maxLength-3]) + "..."
}
