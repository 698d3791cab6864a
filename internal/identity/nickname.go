package identity

import (
	"fmt"
	"math/rand/v2"
	"strings"

	dErrors "campusvoice/pkg/domain-errors"
)

var (
	nicknameAdjectives = []string{
		"brave", "calm", "clever", "eager", "gentle", "happy", "keen",
		"lively", "merry", "nimble", "proud", "quiet", "swift", "witty",
	}
	nicknameNouns = []string{
		"badger", "crane", "falcon", "heron", "lynx", "marten", "otter",
		"panda", "raven", "stork", "tiger", "walrus", "wren", "yak",
	}
)

// GenerateNickname produces an adjective-noun-NN display name.
func GenerateNickname() string {
	return fmt.Sprintf("%s-%s-%d",
		nicknameAdjectives[rand.IntN(len(nicknameAdjectives))],
		nicknameNouns[rand.IntN(len(nicknameNouns))],
		rand.IntN(100))
}

// ValidateNickname checks a user-chosen nickname. Uniqueness is checked
// separately against the session store.
func ValidateNickname(nickname string) (string, error) {
	nickname = strings.TrimSpace(nickname)
	if len(nickname) < 3 {
		return "", dErrors.New(dErrors.CodeValidation, "nickname must be at least 3 characters")
	}
	if len(nickname) > 30 {
		return "", dErrors.New(dErrors.CodeValidation, "nickname must be 30 characters or less")
	}
	return nickname, nil
}

// normalizeNickname is the case-insensitive comparison key.
func normalizeNickname(nickname string) string {
	return strings.ToLower(strings.TrimSpace(nickname))
}
