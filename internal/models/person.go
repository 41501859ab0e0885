package models

import "sort"

// Person represents an actor, director or other credited person
type Person struct {
	ID                 int     `json:"id"`
	Name               string  `json:"name"`
	Biography          string  `json:"biography"`
	Birthday           *string `json:"birthday"`
	PlaceOfBirth       *string `json:"place_of_birth"`
	Gender             Gender  `json:"gender"`
	KnownForDepartment string  `json:"known_for_department"`
	ProfilePath        *string `json:"profile_path"`
}

// PersonCast is a movie the person acted in
type PersonCast struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	PosterPath *string `json:"poster_path"`
	Character  string  `json:"character"`
	Popularity float64 `json:"popularity"`
}

// PersonCrew is a movie the person worked on behind the camera
type PersonCrew struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	PosterPath *string `json:"poster_path"`
	Job        string  `json:"job"`
	Popularity float64 `json:"popularity"`
}

// PersonCredits holds a person's movie credits
type PersonCredits struct {
	ID   int          `json:"id"`
	Cast []PersonCast `json:"cast"`
	Crew []PersonCrew `json:"crew"`
}

// FilmographyEntry is one movie of a ranked filmography
type FilmographyEntry struct {
	MovieID    int      `json:"movie_id"`
	Title      string   `json:"title"`
	PosterPath *string  `json:"poster_path"`
	Roles      []string `json:"roles"` // character names and crew jobs
	Popularity float64  `json:"popularity"`
}

// Filmography merges cast and crew credits into one entry per movie, ranked
// by popularity (highest first). limit <= 0 returns every entry.
func (c PersonCredits) Filmography(limit int) []FilmographyEntry {
	index := make(map[int]int)
	var entries []FilmographyEntry

	add := func(id int, title string, poster *string, role string, popularity float64) {
		if i, ok := index[id]; ok {
			if role != "" {
				entries[i].Roles = append(entries[i].Roles, role)
			}
			if popularity > entries[i].Popularity {
				entries[i].Popularity = popularity
			}
			return
		}
		entry := FilmographyEntry{MovieID: id, Title: title, PosterPath: poster, Popularity: popularity}
		if role != "" {
			entry.Roles = []string{role}
		}
		index[id] = len(entries)
		entries = append(entries, entry)
	}

	for _, cast := range c.Cast {
		add(cast.ID, cast.Title, cast.PosterPath, cast.Character, cast.Popularity)
	}
	for _, crew := range c.Crew {
		add(crew.ID, crew.Title, crew.PosterPath, crew.Job, crew.Popularity)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Popularity > entries[j].Popularity
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

// ProfileImage is one profile picture of a person
type ProfileImage struct {
	FilePath string `json:"file_path"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// PersonImages holds every profile picture known for a person
type PersonImages struct {
	ID       int            `json:"id"`
	Profiles []ProfileImage `json:"profiles"`
}
