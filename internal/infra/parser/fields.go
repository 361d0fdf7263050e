package parser

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Candidate field names, most preferred first.
var (
	titleFields       = []string{"title", "name", "word"}
	urlFields         = []string{"url", "link", "mobileUrl", "mobil_url"}
	hotFields         = []string{"hot", "hot_value", "heat", "hotScore"}
	descriptionFields = []string{"desc", "description", "summary"}
	imageFields       = []string{"image", "cover", "pic", "img"}
	yearFields        = []string{"year"}
	indexFields       = []string{"index", "rank"}
	updateTimeFields  = []string{"update_time", "updateTime", "date", "time"}

	// containerFields locate the item array of a plain JSON object.
	containerFields = []string{"data", "list", "items"}

	// digestContainerFields locate the item array of a negotiated JSON digest.
	digestContainerFields = []string{"data.news", "data.items", "data.list", "news", "items", "data"}
)

// firstString returns the first candidate holding a non-empty string or number.
func firstString(obj gjson.Result, candidates []string) string {
	for _, name := range candidates {
		v := obj.Get(name)
		if v.Type != gjson.String && v.Type != gjson.Number {
			continue
		}
		if s := strings.TrimSpace(v.String()); s != "" {
			return s
		}
	}
	return ""
}

// firstInt returns the first candidate holding a positive integer, either
// as a JSON number or a numeric string.
func firstInt(obj gjson.Result, candidates []string) int {
	for _, name := range candidates {
		v := obj.Get(name)
		switch v.Type {
		case gjson.Number:
			if n := int(v.Int()); n > 0 {
				return n
			}
		case gjson.String:
			if n, err := strconv.Atoi(strings.TrimSpace(v.Str)); err == nil && n > 0 {
				return n
			}
		}
	}
	return 0
}

// firstArray returns the first candidate that is a JSON array.
func firstArray(obj gjson.Result, candidates []string) (gjson.Result, bool) {
	for _, name := range candidates {
		v := obj.Get(name)
		if v.IsArray() {
			return v, true
		}
	}
	return gjson.Result{}, false
}
