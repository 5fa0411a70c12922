package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Card represents a single flashcard from the course catalog
type Card struct {
	ID        string `json:"id"`
	Lesson    int    `json:"lesson"`
	Front     string `json:"front"`               // Term side
	Back      string `json:"back"`                // Definition side
	VideoID   string `json:"videoId,omitempty"`   // Optional YouTube video with the explanation
	Timestamp string `json:"timestamp,omitempty"` // Position in the video, "mm:ss" or "hh:mm:ss"
}

// CardIDForIndex returns the ID assigned to a catalog entry that has none.
// The rule is keyed to load order so stored progress stays valid across reloads.
func CardIDForIndex(index int) string {
	return fmt.Sprintf("card-%d", index)
}

// HasVideo reports whether the card links to a position in a lesson video
func (c Card) HasVideo() bool {
	return c.VideoID != "" && c.Timestamp != ""
}

// VideoURL returns a link to the lesson video at the card's timestamp, or "" if there is none
func (c Card) VideoURL() string {
	if !c.HasVideo() {
		return ""
	}
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s&t=%ds", c.VideoID, TimestampSeconds(c.Timestamp))
}

// TimestampSeconds converts "mm:ss" or "hh:mm:ss" into seconds.
// Anything else yields 0.
func TimestampSeconds(timestamp string) int {
	parts := strings.Split(strings.TrimSpace(timestamp), ":")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0
		}
		nums = append(nums, n)
	}

	switch len(nums) {
	case 2:
		return nums[0]*60 + nums[1]
	case 3:
		return nums[0]*3600 + nums[1]*60 + nums[2]
	}
	return 0
}
