package shelflife

import "strings"

// DefaultDays is used when nothing in the table matches
const DefaultDays = 7

const (
	minDays = 1
	maxDays = 365
)

type shelfLife struct {
	keyword string
	days    int
}

// The first keyword found in the item name wins, so longer phrases come first.
var table = []shelfLife{
	{"cream cheese", 14},
	{"sour cream", 21},
	{"ground beef", 2},
	{"hard cheese", 28},
	{"leftover", 4},
	{"chicken", 2},
	{"turkey", 2},
	{"salmon", 2},
	{"fish", 2},
	{"shrimp", 2},
	{"beef", 4},
	{"pork", 4},
	{"bacon", 7},
	{"deli", 5},
	{"milk", 7},
	{"yogurt", 14},
	{"cheese", 21},
	{"butter", 30},
	{"eggplant", 5},
	{"egg", 35},
	{"tofu", 7},
	{"juice", 7},
	{"berr", 5},
	{"lettuce", 7},
	{"spinach", 5},
	{"herb", 7},
	{"mushroom", 7},
	{"tomato", 7},
	{"pepper", 10},
	{"broccoli", 5},
	{"carrot", 21},
	{"celery", 14},
	{"apple", 30},
	{"grape", 7},
	{"lemon", 21},
	{"lime", 21},
	{"orange", 21},
	{"bread", 7},
	{"tortilla", 14},
	{"ketchup", 180},
	{"mustard", 365},
	{"jam", 180},
}

// Lookup predicts shelf life from the item name alone
func Lookup(item string) int {
	name := strings.ToLower(strings.TrimSpace(item))
	if name == "" {
		return DefaultDays
	}
	for _, entry := range table {
		if strings.Contains(name, entry.keyword) {
			return entry.days
		}
	}
	return DefaultDays
}

func clampDays(days int) int {
	if days < minDays {
		return minDays
	}
	if days > maxDays {
		return maxDays
	}
	return days
}
