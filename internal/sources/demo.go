package sources

import "github.com/matiks/matiks-monitor/internal/models"

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func (r *RedditSource) Demo() []models.RedditPost {
	return []models.RedditPost{
		{
			Title:       "Matiks launches new feature",
			Author:      "startupfan2026",
			URL:         "https://reddit.com/r/startups/comments/abc123",
			CreatedUTC:  floatp(1705516800),
			Score:       intp(42),
			NumComments: intp(11),
		},
	}
}

func (t *TwitterSource) Demo() []models.Tweet {
	return []models.Tweet{
		{
			Content:      "Just hit 1500 rating on @Matiks! Anyone else finding the new update challenging? The math problems are getting harder but more rewarding. #Matiks #MathPractice",
			Username:     "tech_enthusiast",
			Name:         "Tech Enthusiast",
			Date:         "2026-02-01T14:30:00Z",
			URL:          "https://twitter.com/tech_enthusiast/status/1234567890",
			LikeCount:    intp(12),
			ReplyCount:   intp(2),
			RetweetCount: intp(4),
		},
		{
			Content:      "@Matiks has completely changed how I practice mental math. Used to hate numbers, now I do 10-minute duels daily. Highly recommend! 🧠✨",
			Username:     "mathgeek99",
			Name:         "Math Geek",
			Date:         "2026-01-30T09:15:00Z",
			URL:          "https://twitter.com/mathgeek99/status/1234567891",
			LikeCount:    intp(18),
			ReplyCount:   intp(5),
			RetweetCount: intp(1),
		},
		{
			Content:      "The gamification in @Matiks is brilliant. My kids actually ask to practice math now. That's a win! 🎯",
			Username:     "growthhacker",
			Name:         "Growth Hacker",
			Date:         "2026-01-28T16:45:00Z",
			URL:          "https://twitter.com/growthhacker/status/1234567892",
			LikeCount:    intp(3),
			ReplyCount:   intp(1),
			RetweetCount: intp(0),
		},
		{
			Content:      "Comparing @Matiks vs other math apps - the speed and accuracy focus is unmatched. The 1-minute duels are addictive! ⚡",
			Username:     "edutech_daily",
			Name:         "EduTech Daily",
			Date:         "2026-01-25T11:20:00Z",
			URL:          "https://twitter.com/edutech_daily/status/1234567893",
			LikeCount:    intp(45),
			ReplyCount:   intp(8),
			RetweetCount: intp(15),
		},
	}
}

func (l *LinkedInSource) Demo() []models.LinkedInPost {
	return []models.LinkedInPost{
		{
			Content:            "Matiks is one of the most engaging math apps I've used. Great for quick practice and building consistency. #EdTech #Matiks",
			Author:             "Priya Sharma",
			Timestamp:          "2026-02-01T10:00:00Z",
			URL:                "https://www.linkedin.com/feed/update/urn:li:activity:demo1",
			EngagementLikes:    intp(24),
			EngagementComments: intp(3),
		},
		{
			Content:            "Just hit 100 days streak on Matiks! The team even sent a cake 🎂. Best way to stay sharp with numbers. Highly recommend.",
			Author:             "Rahul Verma",
			Timestamp:          "2026-01-28T14:30:00Z",
			URL:                "https://www.linkedin.com/feed/update/urn:li:activity:demo2",
			EngagementLikes:    intp(18),
			EngagementComments: intp(5),
		},
		{
			Content:            "If you're looking for a math practice app that doesn't feel like homework, try Matiks. 1-min duels are addictive in a good way.",
			Author:             "Anita Krishnan",
			Timestamp:          "2026-01-25T09:15:00Z",
			URL:                "https://www.linkedin.com/feed/update/urn:li:activity:demo3",
			EngagementLikes:    intp(12),
			EngagementComments: intp(2),
		},
		{
			Content:            "Matiks – making mental math fun again. Perfect for students and professionals who want to keep their number skills sharp.",
			Author:             "EdTech Insights",
			Timestamp:          "2026-01-22T16:00:00Z",
			URL:                "https://www.linkedin.com/feed/update/urn:li:activity:demo4",
			EngagementLikes:    intp(31),
			EngagementComments: intp(4),
		},
	}
}

func (g *GooglePlaySource) Demo() []models.GooglePlayReview {
	return []models.GooglePlayReview{
		{Rating: intp(5), ReviewText: "Addictive math duels! Great for quick practice.", Date: "2026-01-28T10:00:00", Version: "2.1.0", Author: "User123"},
		{Rating: intp(5), ReviewText: "Really improved my mental math. Recommend.", Date: "2026-01-25T14:30:00", Version: "2.0.9", Author: "MathFan"},
		{Rating: intp(4), ReviewText: "Good app but sometimes lags on older devices.", Date: "2026-01-22T09:15:00", Version: "2.0.8", Author: "TechUser"},
	}
}

func (a *AppleStoreSource) Demo() []models.AppleReview {
	return []models.AppleReview{
		{Rating: intp(5), ReviewText: "Best math duel app. Addictive and fun.", Date: "2026-01-28T10:00:00", Version: "2.1.0", Author: "iOS User"},
		{Rating: intp(5), ReviewText: "Improved my mental math a lot. Recommend.", Date: "2026-01-25T14:30:00", Version: "2.0.9", Author: "MathFan"},
		{Rating: intp(4), ReviewText: "Great app, sometimes crashes on older iPhone.", Date: "2026-01-22T09:15:00", Version: "", Author: "TechUser"},
	}
}
