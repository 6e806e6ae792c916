package summary

import (
	"strings"

	"github.com/insightdelivered/mpesa-statement-converter/internal/models"
)

// Insight is a short, rule-based comment on spending habits.
type Insight struct {
	Vibe    string `json:"vibe"`
	Tip     string `json:"tip"`
	Persona string `json:"persona"`
}

// habit maps description keywords to an insight.
type habit struct {
	keywords []string
	insight  Insight
}

// Checked in order when money in and out are roughly balanced.
var habits = []habit{
	{
		keywords: []string{"uber", "bolt"},
		insight: Insight{
			Vibe:    "Always on the move",
			Tip:     "Transport costs are adding up. Ever tried a matatu?",
			Persona: "The Commuter",
		},
	},
	{
		keywords: []string{"kfc", "java", "bistro"},
		insight: Insight{
			Vibe:    "Foodie life",
			Tip:     "Cooking at home could save you thousands.",
			Persona: "The Foodie",
		},
	},
}

// Insights derives an insight from the totals in s and the descriptions of txns.
func Insights(s Summary, txns []models.Transaction) Insight {
	switch {
	case s.TotalOut > s.TotalIn:
		return Insight{
			Vibe:    "Living large (maybe too large?)",
			Tip:     "Your outflow exceeds your inflow. Cut back on discretionary spending.",
			Persona: "The Big Spender",
		}
	case s.TotalOut > 0 && s.TotalIn/s.TotalOut > 2:
		return Insight{
			Vibe:    "Stacking paper",
			Tip:     "You're saving well! Consider investing your surplus.",
			Persona: "The Saver",
		}
	}

	descriptions := make([]string, 0, len(txns))
	for _, txn := range txns {
		descriptions = append(descriptions, strings.ToLower(txn.Description))
	}
	joined := strings.Join(descriptions, " ")

	for _, h := range habits {
		for _, kw := range h.keywords {
			if strings.Contains(joined, kw) {
				return h.insight
			}
		}
	}

	return Insight{
		Vibe:    "Balancing act",
		Tip:     "Try to save at least 10% of your inflows.",
		Persona: "The Strategist",
	}
}
