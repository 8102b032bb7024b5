package core

import (
	"net/url"
	"strings"
)

// RoomIDFromReferer extracts the room id from the page that opened the
// connection: the last path segment of the referring URL, without query.
// An empty string is returned when nothing usable is present.
func RoomIDFromReferer(referer string) string {
	if referer == "" {
		return ""
	}
	u, err := url.Parse(referer)
	if err != nil {
		return ""
	}
	path := u.Path
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		path = path[i+1:]
	}
	return path
}
