package ws

import (
	"crypto/rand"
	"encoding/hex"
)

func newConnID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return ""
	}
	return hex.EncodeToString(buf)
}

func clientList(set map[*client]bool) []*client {
	members := make([]*client, 0, len(set))
	for c := range set {
		members = append(members, c)
	}
	return members
}
