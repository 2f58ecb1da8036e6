package keywords

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/coastwatch/internal/model"
)

const systemPrompt = `You are an expert in social media search optimization for disaster monitoring in India. Your task is to generate effective search keywords for Twitter/X based on a user's disaster report.

Given a user report about a potential disaster/hazard, generate comprehensive search keywords that would help find related social media posts.

You must respond with ONLY a valid JSON object containing:
- "primary_keywords": List of main search terms (3-5 keywords)
- "location_keywords": List of location-specific terms (include variations, local names)
- "hashtag_suggestions": List of relevant hashtags (5-8 hashtags)
- "combined_queries": List of complete search query strings ready for Twitter API (3-4 queries)
- "language_variations": Keywords in local languages if relevant

Guidelines:
- Focus on Indian coastal areas and disaster types
- Include local language variations (Hindi, Tamil, Telugu, etc.)
- Consider local place name variations (Mumbai/Bombay, Chennai/Madras, etc.)
- Create comprehensive but targeted search queries
- Include urgency indicators (emergency, help, rescue, etc.)
- Consider temporal aspects (happening now, ongoing, etc.)

Example format:
{
    "primary_keywords": ["flood", "waterlogging", "heavy rain"],
    "location_keywords": ["mumbai", "bombay", "maharashtra", "andheri"],
    "hashtag_suggestions": ["#MumbaiFloods", "#MumbaiRains", "#Emergency"],
    "combined_queries": ["flood mumbai urgent", "waterlogging andheri help", "#MumbaiFloods rescue"],
    "language_variations": ["बाढ़ मुंबई", "వరద ముంబై"]
}`

func userPrompt(r model.Report) string {
	var location string
	if r.City != "" || r.State != "" {
		location = fmt.Sprintf("Location: %s, %s, India", orDefault(r.City, "Unknown"), orDefault(r.State, "Unknown"))
	}
	if r.HasCoordinates() {
		location += fmt.Sprintf(" (Coordinates: %s, %s)", formatCoord(*r.Latitude), formatCoord(*r.Longitude))
	}

	reported := ""
	if !r.CreatedAt.IsZero() {
		reported = r.CreatedAt.UTC().Format(time.RFC3339)
	}

	var b strings.Builder
	b.WriteString("Generate search keywords for this disaster report:\n\n")
	fmt.Fprintf(&b, "Title: %q\n", r.Title)
	fmt.Fprintf(&b, "Description: %q\n", r.Description)
	fmt.Fprintf(&b, "Hazard Type: %s\n", orDefault(r.HazardType, "Unknown"))
	fmt.Fprintf(&b, "Severity: %s\n", orDefault(r.Severity, "Unknown"))
	b.WriteString(location + "\n")
	fmt.Fprintf(&b, "Reported At: %s\n\n", reported)
	b.WriteString("Generate comprehensive search keywords to find related social media posts.")
	return b.String()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
