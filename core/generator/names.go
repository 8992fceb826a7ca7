package generator

// DefaultNames is the pool caretaker given names are drawn from.
var DefaultNames = []string{
	"Alice", "Bob", "Charlie", "Diana", "Eli", "Fiona", "George", "Hannah", "Ivan", "Julia",
	"Kevin", "Laura", "Mike", "Nina", "Oscar", "Paula", "Quinn", "Rita", "Steve", "Tina",
	"Uma", "Victor", "Wendy", "Xander", "Yara", "Zane", "Abby", "Ben", "Carmen", "Derek",
	"Esther", "Frank", "Gina", "Harold", "Isla", "Jake", "Karen", "Leo", "Mila", "Noah",
}

func uniqueCount(names []string) int {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	return len(seen)
}
