package ssdp

import (
	"strings"

	"github.com/backkem/ssdp/pkg/header"
	"github.com/backkem/ssdp/pkg/message"
	"github.com/backkem/ssdp/pkg/receiver"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultDedupeSize is the cache size DedupeByUSN uses for a non-positive size.
const DefaultDedupeSize = 256

// DedupeByUSN returns a receiver filter that drops messages already seen,
// keyed by USN and notification sub type. It suppresses duplicated NOTIFY
// bursts and a device answering the same search on several interfaces,
// while still passing every change of a device's state: an ssdp:byebye
// forgets the USN's earlier alive, update and response keys, and any other
// message for the USN forgets its byebye, so a device that leaves and
// returns is reported each time.
//
// The filter remembers the size most recent keys. Messages without a USN
// always pass.
func DedupeByUSN(size int) receiver.Filter {
	if size <= 0 {
		size = DefaultDedupeSize
	}
	seen, err := lru.New[string, struct{}](size)
	if err != nil {
		// Only a non-positive size fails, which is excluded above.
		panic(err)
	}

	return func(m *message.Message) bool {
		usn := m.GetRaw("USN")
		if len(usn) == 0 {
			return true
		}
		prefix := string(usn[0]) + "\x00"
		nts := first(m.GetRaw("NTS"))
		key := prefix + nts + "\x00" + first(m.GetRaw("ST"))
		if found, _ := seen.ContainsOrAdd(key, struct{}{}); found {
			return false
		}

		if nts == string(header.NTSByeBye) {
			for _, k := range seen.Keys() {
				if k != key && strings.HasPrefix(k, prefix) {
					seen.Remove(k)
				}
			}
		} else {
			seen.Remove(prefix + string(header.NTSByeBye) + "\x00")
		}
		return true
	}
}

func first(values [][]byte) string {
	if len(values) == 0 {
		return ""
	}
	return string(values[0])
}
