// Package domain holds the tenant dashboard read models and the pure rules that derive
// trend, health and recommendations from review statistics.
package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidDateRange is returned for a dateRange that is not one of the DateRange constants.
var ErrInvalidDateRange = errors.New("invalid date range")

// InvalidDateRangeMessage is the client-facing text for ErrInvalidDateRange.
const InvalidDateRangeMessage = "Invalid date range. Must be one of: 7d, 30d, 90d, 1y"

// DateRange is a reporting window ending now.
type DateRange string

const (
	Range7Days   DateRange = "7d"
	Range30Days  DateRange = "30d"
	Range90Days  DateRange = "90d"
	Range1Year   DateRange = "1y"
	DefaultRange           = Range30Days
)

var rangeDays = map[DateRange]int{
	Range7Days:  7,
	Range30Days: 30,
	Range90Days: 90,
	Range1Year:  365,
}

// ParseDateRange parses s. An empty s is DefaultRange.
func ParseDateRange(s string) (DateRange, error) {
	if s == "" {
		return DefaultRange, nil
	}
	r := DateRange(s)
	if _, ok := rangeDays[r]; !ok {
		return "", ErrInvalidDateRange
	}
	return r, nil
}

// Since returns the start of the window ending at now.
func (r DateRange) Since(now time.Time) time.Time {
	days, ok := rangeDays[r]
	if !ok {
		days = rangeDays[DefaultRange]
	}
	return now.Add(-time.Duration(days) * 24 * time.Hour)
}

// Review trend labels.
const (
	TrendNew        = "new"
	TrendIncreasing = "increasing"
	TrendStable     = "stable"
	TrendDecreasing = "decreasing"
)

// ReviewTrend classifies the share of reviews that fall inside the window.
func ReviewTrend(recent, total int) string {
	if total == 0 {
		return TrendNew
	}
	ratio := float64(recent) / float64(total)
	switch {
	case ratio > 0.3:
		return TrendIncreasing
	case ratio > 0.1:
		return TrendStable
	default:
		return TrendDecreasing
	}
}

// Overview is the headline block of the dashboard.
type Overview struct {
	ID              int64     `json:"id" db:"id"`
	Slug            string    `json:"slug" db:"slug"`
	BusinessName    string    `json:"businessName" db:"business_name"`
	Industry        string    `json:"industry" db:"industry"`
	Status          string    `json:"status" db:"application_status"`
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	TotalReviews    int       `json:"totalReviews" db:"total_reviews"`
	AverageRating   float64   `json:"averageRating" db:"average_rating"`
	RecentReviews   int       `json:"recentReviews" db:"recent_reviews"`
	PositiveReviews int       `json:"positiveReviews" db:"positive_reviews"`
	NegativeReviews int       `json:"negativeReviews" db:"negative_reviews"`
	ReviewTrend     string    `json:"reviewTrend" db:"-"`
}

// RatingCount is one bar of the rating distribution.
type RatingCount struct {
	Rating int `json:"rating" db:"rating"`
	Count  int `json:"count" db:"count"`
}

// SourceCount is the number of reviews from one source.
type SourceCount struct {
	Source string `json:"source" db:"source"`
	Count  int    `json:"count" db:"count"`
}

// RecentReview is a review as listed on the dashboard.
type RecentReview struct {
	ID           int64     `json:"id" db:"id"`
	CustomerName string    `json:"customerName" db:"customer_name"`
	Rating       int       `json:"rating" db:"rating"`
	Comment      string    `json:"comment" db:"comment"`
	Source       string    `json:"source" db:"source"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// MonthTrend aggregates reviews of one calendar month.
type MonthTrend struct {
	Month         time.Time `json:"month" db:"month"`
	ReviewCount   int       `json:"reviewCount" db:"review_count"`
	AverageRating float64   `json:"averageRating" db:"avg_rating"`
}

// ReviewStats is the review analytics block.
type ReviewStats struct {
	Distribution  []RatingCount  `json:"distribution"`
	Sources       []SourceCount  `json:"sources"`
	RecentReviews []RecentReview `json:"recentReviews"`
	Trends        []MonthTrend   `json:"trends"`
}

// Activity is one entry of the recent activity feed.
type Activity struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Rating      int       `json:"rating"`
	Timestamp   time.Time `json:"timestamp"`
}

// ActivityFeed lists recent activity.
type ActivityFeed struct {
	Activities      []Activity `json:"activities"`
	TotalActivities int        `json:"totalActivities"`
}

// ActivityFromReviews turns the newest reviews into feed entries.
func ActivityFromReviews(reviews []RecentReview, max int) ActivityFeed {
	if max > 0 && len(reviews) > max {
		reviews = reviews[:max]
	}
	feed := ActivityFeed{Activities: make([]Activity, 0, len(reviews))}
	for _, r := range reviews {
		feed.Activities = append(feed.Activities, Activity{
			Type:        "review",
			Title:       r.CustomerName,
			Description: "New review received",
			Rating:      r.Rating,
			Timestamp:   r.CreatedAt,
		})
	}
	feed.TotalActivities = len(feed.Activities)
	return feed
}

// Insight is a short observation shown on the dashboard.
type Insight struct {
	Type     string `json:"type"`
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Recommendation is a suggested next step.
type Recommendation struct {
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Summary collects insights, a 0-1 health score and recommendations.
type Summary struct {
	Insights        []Insight        `json:"insights"`
	OverallHealth   float64          `json:"overallHealth"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Summarize derives the summary block from the overview.
func Summarize(o Overview) Summary {
	s := Summary{Insights: []Insight{}, Recommendations: []Recommendation{}}

	switch {
	case o.AverageRating >= 4.5:
		s.Insights = append(s.Insights, Insight{"positive", "reviews", fmt.Sprintf("Excellent rating of %.1f stars!", o.AverageRating)})
	case o.TotalReviews > 0 && o.AverageRating < 3.0:
		s.Insights = append(s.Insights, Insight{"warning", "reviews", fmt.Sprintf("Rating of %.1f stars needs improvement", o.AverageRating)})
	}
	if o.RecentReviews > 0 {
		s.Insights = append(s.Insights, Insight{"info", "activity", fmt.Sprintf("%d new reviews this period", o.RecentReviews)})
	}

	if o.TotalReviews > 0 && o.AverageRating < 4.0 {
		s.Recommendations = append(s.Recommendations, Recommendation{
			Priority:    "high",
			Category:    "reviews",
			Title:       "Improve Customer Satisfaction",
			Description: "Focus on delivering exceptional service to improve your rating",
		})
	}
	if o.TotalReviews < 10 {
		s.Recommendations = append(s.Recommendations, Recommendation{
			Priority:    "medium",
			Category:    "reviews",
			Title:       "Encourage More Reviews",
			Description: "Ask satisfied customers to leave reviews to build credibility",
		})
	}

	s.OverallHealth = OverallHealth(o)
	return s
}

// OverallHealth weighs rating (40) and review volume (30, saturating at 50 reviews).
// The result is in [0, 1] rounded to two decimals; a tenant without reviews scores 0.
func OverallHealth(o Overview) float64 {
	if o.TotalReviews == 0 {
		return 0
	}
	var score, weight float64
	if o.AverageRating > 0 {
		score += o.AverageRating / 5 * 40
		weight += 40
	}
	activity := math.Min(1, float64(o.TotalReviews)/50)
	score += activity * 30
	weight += 30
	return math.Round(score/weight*100) / 100
}

// TenantInfo identifies the tenant and window a dashboard was built for.
type TenantInfo struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	DateRange   DateRange `json:"dateRange"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Dashboard is the full dashboard payload.
type Dashboard struct {
	Tenant   TenantInfo   `json:"tenant"`
	Overview Overview     `json:"overview"`
	Reviews  ReviewStats  `json:"reviews"`
	Activity ActivityFeed `json:"activity"`
	Summary  Summary      `json:"summary"`
}
