package models

// Raw payload records, one type per source. Optional numeric fields are pointers so that
// "absent" stays distinguishable from zero until a normalizer applies defaults.

// RedditPost is one search hit from the forum source
type RedditPost struct {
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	Author      string   `json:"author"`
	URL         string   `json:"url"`
	CreatedUTC  *float64 `json:"created_utc"`
	Score       *int     `json:"score"`
	NumComments *int     `json:"num_comments"`
}

// Tweet is one microblog post
type Tweet struct {
	Content      string `json:"content"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	Date         string `json:"date"`
	URL          string `json:"url"`
	LikeCount    *int   `json:"likeCount"`
	ReplyCount   *int   `json:"replyCount"`
	RetweetCount *int   `json:"retweetCount"`
}

// LinkedInPost is one professional-network post or public search result
type LinkedInPost struct {
	Content            string `json:"content"`
	Author             string `json:"author"`
	Timestamp          string `json:"timestamp"`
	URL                string `json:"url"`
	EngagementLikes    *int   `json:"engagement_likes"`
	EngagementComments *int   `json:"engagement_comments"`
}

// GooglePlayReview is one Android store review
type GooglePlayReview struct {
	Author     string `json:"author"`
	ReviewText string `json:"review_text"`
	Date       string `json:"date"`
	Version    string `json:"version"`
	Rating     *int   `json:"rating"`
}

// AppleReview is one iOS store review
type AppleReview struct {
	ReviewID   string `json:"review_id"`
	Author     string `json:"author"`
	ReviewText string `json:"review_text"`
	Date       string `json:"date"`
	Version    string `json:"version"`
	Rating     *int   `json:"rating"`
	Country    string `json:"country"`
}
