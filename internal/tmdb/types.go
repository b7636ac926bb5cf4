// Package tmdb provides a client for The Movie Database API.
package tmdb

import "fmt"

// DiscoverPage is one page of /discover results.
type DiscoverPage struct {
	Page         int    `json:"page"`
	TotalPages   int    `json:"total_pages"`
	TotalResults int    `json:"total_results"`
	Results      []Item `json:"results"`
}

// Item is a movie or TV show as returned by /discover.
// Movies carry Title/ReleaseDate, shows carry Name/FirstAirDate.
type Item struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date,omitempty"`  // "2024-03-01"
	FirstAirDate string  `json:"first_air_date,omitempty"` // "2024-03-01"
	PosterPath   string  `json:"poster_path"`              // "/abc123.jpg"
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
	GenreIDs     []int   `json:"genre_ids"`
}

// DisplayName returns the title for movies and the name for shows.
func (i *Item) DisplayName() string {
	if i.Title != "" {
		return i.Title
	}
	return i.Name
}

// Released returns the release or first air date.
func (i *Item) Released() string {
	if i.ReleaseDate != "" {
		return i.ReleaseDate
	}
	return i.FirstAirDate
}

// Rating formats the vote average with one decimal, or "" when unrated.
func (i *Item) Rating() string {
	if i.VoteAverage == 0 {
		return ""
	}
	return fmt.Sprintf("%.1f", i.VoteAverage)
}

// Genre represents a genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type genreList struct {
	Genres []Genre `json:"genres"`
}
