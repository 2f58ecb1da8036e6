package classify

import (
	"fmt"
	"time"
)

const hazardSystemPrompt = `You are an expert multilingual AI agent specializing in ocean hazard monitoring and disaster intelligence for India.
You analyze real-time citizen and social media reports about hazards such as floods, tsunamis, storm surges, coastal erosion, high waves, and abnormal tides.
Posts may be in English, Hindi, Tamil, Telugu, Malayalam, Bengali, Odia, Gujarati, or mixed code-switching.

Your responsibilities:
- Accurately translate or interpret posts into English internally (do not output translations unless asked).
- Preserve local context, idioms, and colloquial hazard expressions (e.g., "samundar ka paani ghus gaya" = "seawater intrusion").
- Detect hazard types, urgency, and credibility across multiple languages.
- Always normalize your final outputs in English, but you may mention the detected original language if relevant.
- Accuracy and credibility are critical; avoid speculation, but highlight confidence levels.
- Use historical hazard knowledge and seasonal patterns in India to strengthen context.
- Produce structured, machine-parseable JSON outputs only.`

const hazardUserTemplate = `New Social Media Signal

Post Text (may be in multiple languages): %q
Timestamp (UTC): %q
User Location (if available): %q

Tasks:
1. Event Detection (Multilingual):
   - Translate internally into English, interpret the meaning, and detect hazard signals.
   - Does this post indicate a possible ocean or coastal hazard? (yes/no with confidence).
   - Identify hazard type: ["Flood", "Tsunami", "Storm Surge", "High Waves", "Coastal Erosion", "Other"].
   - Estimate urgency (Low/Medium/High).

2. Historical Pattern Analysis:
   - Identify past similar events in the same region.
   - Provide a one-line historical precedent with date/month if available.

3. Seasonal & Probabilistic Context:
   - Check whether >60%% of similar past events in this region occur in the same season/month.
   - If yes, highlight the seasonal risk explicitly.

4. Risk Communication:
   - Provide one actionable recommendation.
   - Generate a human-readable summary linking current post -> historical precedent -> seasonal risk.

5. Output Format: Strict JSON only:
{
  "original_language": "Detected language code (e.g., hi, ta, te, en, etc.)",
  "hazard_detected": true/false,
  "hazard_type": "Flood/Tsunami/Storm Surge/High Waves/Coastal Erosion/Other",
  "urgency": "Low/Medium/High",
  "confidence": 0.0-1.0,
  "historical_context": "One-line summary of past similar events or null",
  "seasonal_pattern": "Yes/No with explanation",
  "recommended_action": "One-line recommendation",
  "final_summary": "Concise human-readable intelligence for decision-makers"
}`

func hazardUserPrompt(text string, ts time.Time, location string) string {
	stamp := ""
	if !ts.IsZero() {
		stamp = ts.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf(hazardUserTemplate, text, stamp, location)
}

const relevanceSystemPrompt = `You are an expert disaster response analyst specializing in social media monitoring for natural hazards in India. Your task is to analyze social media posts and classify them for potential flood, tsunami, high wave, and cyclone threats.

You must respond with ONLY a valid JSON object containing the following fields:
- "relevance": "hazard" or "non-hazard"
- "hazard_type": "Flood", "Tsunami", "High Wave", "Storm Surge", "Cyclone", or "Other" (only if relevance is "hazard")
- "urgency": "Low", "Medium", or "High"
- "confidence": a decimal between 0.0 and 1.0
- "reasoning": brief explanation of your classification

Guidelines:
- "hazard": Posts describing actual water-related emergencies, flooding, tsunamis, high waves, storm surges, cyclones
- "non-hazard": News articles, weather forecasts, historical events, jokes, unrelated content
- Urgency "High": Immediate danger, calls for help, evacuation needs
- Urgency "Medium": Developing situation, warnings, preparation advice
- Urgency "Low": Minor flooding, past events, general concerns
- Confidence: How certain you are (0.8+ for clear cases, 0.5-0.7 for uncertain, <0.5 for very unclear)

Focus on content indicating real-time hazardous conditions in India.`

func relevanceUserPrompt(text, city, state string, hasLocation bool) string {
	location := ""
	if hasLocation {
		if city == "" {
			city = "Unknown"
		}
		if state == "" {
			state = "Unknown"
		}
		location = fmt.Sprintf("\nLocation context: %s, %s, India", city, state)
	}
	return fmt.Sprintf("Analyze this social media post for water-related hazards in India:\n\nText: %q%s\n\nClassify this post according to the guidelines provided.", text, location)
}
