package model

import "strings"

// UserRecord mirrors a user as the external user directory stores it.
// The directory owns the record; the bot only reads it back after lookup
// or registration.
type UserRecord struct {
	ID         string `json:"id"`
	TgNickname string `json:"tg_nickname"`
	Name       string `json:"name"`
	Surname    string `json:"surname"`
	Age        int    `json:"age"`
	Gender     string `json:"gender"` // "M" | "F"
}

func (u *UserRecord) IsZero() bool { return u == nil || u.ID == "" }

// Gender token sets accepted during registration. Single letters and the
// full/short Russian words are all valid; matching is case-insensitive.
var (
	maleTokens   = []string{"M", "М", "МУЖСКОЙ", "МУЖ"}
	femaleTokens = []string{"F", "Ж", "ЖЕНСКИЙ", "ЖЕН"}
)

// NormalizeGender maps free-form gender input onto "M" or "F".
// Unrecognized input reports ok=false and must re-prompt, never default.
func NormalizeGender(text string) (string, bool) {
	t := strings.ToUpper(strings.TrimSpace(text))
	for _, tok := range maleTokens {
		if t == tok {
			return "M", true
		}
	}
	for _, tok := range femaleTokens {
		if t == tok {
			return "F", true
		}
	}
	return "", false
}

// ValidAge bounds the accepted registration age.
func ValidAge(age int) bool { return age >= 1 && age <= 120 }
