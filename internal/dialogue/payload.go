package dialogue

import (
	"fmt"
	"net/url"
	"strconv"
)

// Callback is a parsed postback payload. Payloads are parsed into one of the
// tagged variants at the boundary; payloads that do not parse are dropped by
// the controller rather than risking a partial dispatch.
type Callback interface {
	isCallback()
}

// RegionSelected is a tap on one of the region menu options.
type RegionSelected struct {
	Region string
}

// RatingSubmitted is a tap on one of the rating menu options. The payload
// carries the venue title so the submission survives menu reordering.
type RatingSubmitted struct {
	Title  string
	Rating int
}

func (RegionSelected) isCallback()  {}
func (RatingSubmitted) isCallback() {}

// ParseCallback decodes a postback data string into a tagged variant. The key
// set determines the handler: a payload carrying "rating" is always a rating
// submission, a payload carrying "region" is always region selection. Any
// other shape, or a rating outside 1..5, is an error.
func ParseCallback(data string) (Callback, error) {
	values, err := url.ParseQuery(data)
	if err != nil {
		return nil, fmt.Errorf("malformed callback payload: %w", err)
	}

	if raw := values.Get("rating"); raw != "" {
		ratingValue, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("malformed rating value %q: %w", raw, err)
		}
		if ratingValue < 1 || ratingValue > 5 {
			return nil, fmt.Errorf("rating %d out of range [1,5]", ratingValue)
		}
		title := values.Get("title")
		if title == "" {
			return nil, fmt.Errorf("rating callback missing title")
		}
		return RatingSubmitted{Title: title, Rating: ratingValue}, nil
	}

	if region := values.Get("region"); region != "" {
		return RegionSelected{Region: region}, nil
	}

	return nil, fmt.Errorf("unrecognized callback shape %q", data)
}
