package quiz

import "math"

// Percentage returns round(score/total*100), or 0 for an empty course.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// SummaryMessage picks the closing message for a final percentage.
func SummaryMessage(percentage int) string {
	switch {
	case percentage == 100:
		return "Perfect Score!"
	case percentage >= 80:
		return "Excellent Work!"
	case percentage >= 50:
		return "Not bad, keep learning!"
	default:
		return "Good effort!"
	}
}

// ProgressPercent is the share of the sequence reached at position, capped
// at 100.
func ProgressPercent(position, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Min(100, float64(position+1)/float64(total)*100)
}
