// internal/message/user.go
package message

import "strings"

// UpdateUser reports the connection's current identity (updateuser).
// Named is false while the server still considers the user a guest.
type UpdateUser struct {
	Username string
	Named    bool
	Avatar   string
}

func parseUpdateUser(args string) (Kind, bool) {
	fields := strings.SplitN(args, "|", 4)
	if len(fields) < 3 {
		return nil, false
	}
	var named bool
	switch fields[1] {
	case "0":
	case "1":
		named = true
	default:
		return nil, false
	}
	avatar, _, _ := strings.Cut(fields[2], "\n")
	return UpdateUser{Username: fields[0], Named: named, Avatar: avatar}, true
}
