package relay

import "teamline.app/pulse/internal/event"

// ChannelFor derives the pub/sub channel an envelope is published on.
// Channels are per event family, so a gateway covers the whole catalog with
// a short fixed subscription list and the relay never learns room topology.
func ChannelFor(prefix string, t event.Type) string {
	return prefix + ":" + t.Family()
}

// Channels lists every catalog channel under the given prefix.
func Channels(prefix string) []string {
	families := event.Families()
	channels := make([]string, len(families))
	for i, f := range families {
		channels[i] = prefix + ":" + f
	}
	return channels
}
