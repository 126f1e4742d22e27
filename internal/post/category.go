package post

import (
	"fmt"
	"strings"
	"unicode"
)

// Category classifies a blog post. The set is fixed; the metadata stage
// rejects anything outside it.
type Category string

const (
	Development Category = "development"
	Computer    Category = "computer"
	Home        Category = "home"
	AI          Category = "ai"
	Business    Category = "business"
	Crafting    Category = "crafting"
	Health      Category = "health"
	DIY         Category = "diy"
	Recipes     Category = "recipes"
)

// AllCategories returns the valid categories in canonical order.
func AllCategories() []Category {
	return []Category{Development, Computer, Home, AI, Business, Crafting, Health, DIY, Recipes}
}

// CategoryNames returns the category set as plain strings.
func CategoryNames() []string {
	all := AllCategories()
	names := make([]string, len(all))
	for i, c := range all {
		names[i] = string(c)
	}
	return names
}

// ParseCategory validates a raw category string. There is no fallback:
// an unknown category is an error.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range AllCategories() {
		if c == valid {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q (valid: %s)", s, strings.Join(CategoryNames(), ", "))
}

var categoryKeywords = map[Category][]string{
	Development: {
		"code", "coding", "programming", "software", "api", "golang", "python",
		"javascript", "framework", "library", "debugging", "testing", "deploy",
		"git", "compiler", "refactor",
	},
	Computer: {
		"computer", "laptop", "hardware", "windows", "linux", "macos", "cpu",
		"gpu", "keyboard", "monitor", "network", "wifi", "router", "printer",
		"storage", "backup",
	},
	Home: {
		"home", "garden", "gardening", "compost", "composting", "cleaning",
		"organizing", "furniture", "decor", "lawn", "plants", "household",
		"kitchen", "laundry",
	},
	AI: {
		"ai", "machine learning", "deep learning", "neural", "llm", "gpt",
		"model", "training", "inference", "prompt", "chatbot", "embedding",
		"diffusion", "transformer",
	},
	Business: {
		"business", "startup", "marketing", "sales", "customer", "revenue",
		"budget", "invoice", "freelance", "productivity", "meeting", "strategy",
		"pricing",
	},
	Crafting: {
		"craft", "crafting", "knitting", "sewing", "crochet", "quilting",
		"scrapbook", "yarn", "fabric", "embroidery", "painting", "pottery",
		"beading",
	},
	Health: {
		"health", "fitness", "exercise", "workout", "nutrition", "diet",
		"sleep", "stress", "meditation", "wellness", "stretching", "running",
		"vitamins",
	},
	DIY: {
		"diy", "build", "woodworking", "repair", "renovation", "tools",
		"workbench", "sanding", "drill", "paint", "project", "restore",
		"upcycle",
	},
	Recipes: {
		"recipe", "recipes", "cooking", "baking", "ingredients", "oven",
		"sourdough", "dough", "dinner", "dessert", "sauce", "grill",
		"marinade", "simmer",
	},
}

// SuggestCategory picks the most plausible category for the given title and
// content using keyword matching, title keywords weighted 2x. The result is
// only prompt guidance for the metadata stage; it never overrides an invalid
// model choice. Returns Home for content matching nothing.
func SuggestCategory(title, content string) Category {
	titleTokens := tokenize(title)
	contentTokens := tokenize(content)
	titleLower := strings.ToLower(title)
	contentLower := strings.ToLower(content)

	var bestCat Category
	bestScore := 0

	for _, cat := range AllCategories() {
		score := 0
		for _, kw := range categoryKeywords[cat] {
			if !strings.Contains(kw, " ") {
				for _, t := range titleTokens {
					if t == kw {
						score += 2
					}
				}
				for _, t := range contentTokens {
					if t == kw {
						score++
					}
				}
			} else {
				if strings.Contains(titleLower, kw) {
					score += 2
				}
				if strings.Contains(contentLower, kw) {
					score++
				}
			}
		}
		if score > bestScore {
			bestScore = score
			bestCat = cat
		}
	}

	if bestScore == 0 {
		return Home
	}
	return bestCat
}

func tokenize(s string) []string {
	var tokens []string
	for _, word := range strings.Fields(strings.ToLower(s)) {
		word = strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		if word != "" {
			tokens = append(tokens, word)
		}
	}
	return tokens
}
