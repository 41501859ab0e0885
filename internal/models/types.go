package models

import "fmt"

// ListKind identifies one of the user's movie relationship lists
type ListKind string

const (
	ListWatched   ListKind = "watched"
	ListFavorite  ListKind = "favorite"
	ListWatchlist ListKind = "watchlist"
)

// ListKinds is every relationship list, in display order
var ListKinds = []ListKind{ListWatched, ListFavorite, ListWatchlist}

// ParseListKind converts user input ("watched", "favorites", ...) to a ListKind
func ParseListKind(s string) (ListKind, error) {
	switch s {
	case "watched":
		return ListWatched, nil
	case "favorite", "favorites":
		return ListFavorite, nil
	case "watchlist":
		return ListWatchlist, nil
	}
	return "", fmt.Errorf("unknown list %q", s)
}

// Table returns the backend table holding rows of this list
func (k ListKind) Table() string {
	switch k {
	case ListWatched:
		return "watched_movies"
	case ListFavorite:
		return "favorite_movies"
	default:
		return "watchlist"
	}
}

// TimestampColumn returns the column used to order rows newest first
func (k ListKind) TimestampColumn() string {
	if k == ListWatched {
		return "watched_at"
	}
	return "added_at"
}

// Category identifies a catalog browsing list
type Category string

const (
	CategoryPopular      Category = "popular"
	CategoryTrendingDay  Category = "trending_day"
	CategoryTrendingWeek Category = "trending_week"
	CategoryNowPlaying   Category = "now_playing"
	CategoryUpcoming     Category = "upcoming"
	CategoryTopRated     Category = "top_rated"
)

// Categories lists every browsing category shown on the home screen
var Categories = []Category{
	CategoryPopular,
	CategoryTrendingDay,
	CategoryTrendingWeek,
	CategoryNowPlaying,
	CategoryUpcoming,
	CategoryTopRated,
}

// ParseCategory validates a category name
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Gender is the catalog's gender code for a person
type Gender int

const (
	GenderUnspecified Gender = 0
	GenderFemale      Gender = 1
	GenderMale        Gender = 2
)

func (g Gender) String() string {
	switch g {
	case GenderFemale:
		return "female"
	case GenderMale:
		return "male"
	default:
		return "unspecified"
	}
}
