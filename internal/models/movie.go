package models

// Genre is a catalog genre (id + localized name)
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Movie represents a movie as returned by the catalog API.
// Records are replaced wholesale on refetch, never merged.
type Movie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	PosterPath   *string `json:"poster_path"`
	BackdropPath *string `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	Overview     string  `json:"overview,omitempty"`
	Genres       []Genre `json:"genres,omitempty"`
	Runtime      int     `json:"runtime,omitempty"` // minutes, details endpoint only
}

// HasPoster reports whether the movie has a poster image to render
func (m Movie) HasPoster() bool {
	return m.PosterPath != nil && *m.PosterPath != ""
}

// MoviePage is the paginated list envelope of the catalog API
type MoviePage struct {
	Results      []Movie `json:"results"`
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// CastMember is an actor credited on a movie
type CastMember struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Character   string  `json:"character"`
	ProfilePath *string `json:"profile_path"`
}

// CrewMember is a crew member credited on a movie
type CrewMember struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Job         string  `json:"job"`
	ProfilePath *string `json:"profile_path"`
}

// MovieCredits holds the cast and crew of a movie
type MovieCredits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// Directors returns the crew members with the "Director" job
func (c MovieCredits) Directors() []CrewMember {
	var out []CrewMember
	for _, member := range c.Crew {
		if member.Job == "Director" {
			out = append(out, member)
		}
	}
	return out
}
