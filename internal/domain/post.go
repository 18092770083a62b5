package domain

import "time"

const postURLBase = "https://peakd.com"

// Post is a candidate post surfaced from the blockchain social network.
type Post struct {
	Author     string
	Permlink   string
	Title      string
	Body       string
	Category   string
	Created    time.Time
	Reputation float64
	Preview    string
	ImageURL   string
}

// URL is the canonical article URL; stored analyses are keyed by it.
func (p Post) URL() string {
	return postURLBase + "/@" + p.Author + "/" + p.Permlink
}

// Key identifies a post for deduplication across sources.
func (p Post) Key() string {
	return p.Author + "/" + p.Permlink
}
