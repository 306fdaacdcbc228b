package events

import (
	"fmt"
	"strconv"
	"strings"

	domain "github.com/kaiodadalt/task-management-system/domain/task"
)

// userChannelPrefix names the private per-user channel.
const userChannelPrefix = "private-App.Domain.User."

// UserChannel returns the private channel for a user.
func UserChannel(userID uint) string {
	return fmt.Sprintf("%s%d", userChannelPrefix, userID)
}

// ParseUserChannel extracts the user id from a private user channel name.
func ParseUserChannel(name string) (uint, bool) {
	rest, ok := strings.CutPrefix(name, userChannelPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(rest, 10, 0)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// ChannelsFor returns the creator's channel followed by the assignee's,
// omitting the assignee when it is the creator.
func ChannelsFor(t domain.Task) []string {
	ids := t.Participants()
	channels := make([]string, 0, len(ids))
	for _, id := range ids {
		channels = append(channels, UserChannel(id))
	}
	return channels
}

// CanSubscribe reports whether userID may listen on channel. Users may
// only join their own private channel.
func CanSubscribe(userID uint, channel string) bool {
	owner, ok := ParseUserChannel(channel)
	return ok && owner == userID
}
