package gqlcache

import "time"

// Source tells where a Result came from.
type Source uint8

const (
	SourceNone    Source = iota
	SourceCache          // store hit
	SourceNetwork        // transport round trip
	SourcePoll           // a poll was scheduled; Data is nil
	SourceStore          // write-through performed by the store
)

func (s Source) String() string {
	switch s {
	case SourceCache:
		return "cache"
	case SourceNetwork:
		return "network"
	case SourcePoll:
		return "poll"
	case SourceStore:
		return "store"
	default:
		return "none"
	}
}

// Result is the outcome of Query and Mutate.
type Result struct {
	Data    Response
	Source  Source
	Poll    *PollHandle   // set when the query was turned into a poll
	Latency time.Duration // time from call to completion; zero for polls
}
