package tmdb

// ImageBaseURL is the TMDB image CDN
const ImageBaseURL = "https://image.tmdb.org/t/p/"

// Image sizes
const (
	PosterSmall  = "w185"
	PosterMedium = "w342"
	PosterLarge  = "w500"

	BackdropSmall  = "w300"
	BackdropMedium = "w780"
	BackdropLarge  = "w1280"

	ProfileSmall  = "w45"
	ProfileMedium = "w185"
	ProfileLarge  = "h632"

	Original = "original"
)

// Placeholder assets used when a record has no image
const (
	PosterPlaceholder   = "poster-placeholder.png"
	BackdropPlaceholder = "backdrop-placeholder.png"
	ProfilePlaceholder  = "profile-placeholder.png"
)

// ImageURL builds the CDN URL of an image path; empty when path is missing
func ImageURL(path *string, size string) string {
	if path == nil || *path == "" {
		return ""
	}
	if size == "" {
		size = Original
	}
	return ImageBaseURL + size + *path
}

// PosterURL returns the poster URL or the placeholder asset
func PosterURL(path *string, size string) string {
	return withFallback(ImageURL(path, size), PosterPlaceholder)
}

// BackdropURL returns the backdrop URL or the placeholder asset
func BackdropURL(path *string, size string) string {
	return withFallback(ImageURL(path, size), BackdropPlaceholder)
}

// ProfileURL returns the profile picture URL or the placeholder asset
func ProfileURL(path *string, size string) string {
	return withFallback(ImageURL(path, size), ProfilePlaceholder)
}

func withFallback(u, placeholder string) string {
	if u == "" {
		return placeholder
	}
	return u
}
